package spatial

import (
	"fmt"
	"math"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
)

type mat3 [3][3]float64

func (m mat3) apply(v domain.Vec3) domain.Vec3 {
	var out domain.Vec3
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

// eulerXYZ builds the rotation matrix for Euler angles in degrees applied in
// X, Y, Z order: R = Rz · Ry · Rx.
func eulerXYZ(deg [3]float64) mat3 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	sx, cx := math.Sincos(rad(deg[0]))
	sy, cy := math.Sincos(rad(deg[1]))
	sz, cz := math.Sincos(rad(deg[2]))

	return mat3{
		{cy * cz, sx*sy*cz - cx*sz, cx*sy*cz + sx*sz},
		{cy * sz, sx*sy*sz + cx*cz, cx*sy*sz - sx*cz},
		{-sy, sx * cy, cx * cy},
	}
}

// quatMat builds the rotation matrix for a unit quaternion given
// scalar-first (w, x, y, z), the order scene nodes store for orient ops.
// Non-unit input is normalized first.
func quatMat(w, x, y, z float64) mat3 {
	n := math.Sqrt(w*w + x*x + y*y + z*z)
	if n == 0 {
		return mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	w, x, y, z = w/n, x/n, y/n, z/n

	return mat3{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// BoxForNode derives the world-frame AABB of one placed node: the authored
// extent (already in centimeters) is treated as a local box sitting on its
// base at the origin, its 8 corners are rotated by the node's rotation
// operator and translated by its position, and the result is re-boxed.
func BoxForNode(n scene.Node) (Box, error) {
	var translate domain.Vec3
	rot := mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	for _, op := range n.Ops {
		switch op.Name {
		case scene.OpTranslate:
			if len(op.Values) != 3 {
				return Box{}, fmt.Errorf("spatial: node %s: translate has %d values", n.Name, len(op.Values))
			}
			copy(translate[:], op.Values)
		case scene.OpRotateXYZ:
			if len(op.Values) != 3 {
				return Box{}, fmt.Errorf("spatial: node %s: %w", n.Name, domain.ErrUnsupportedRotation)
			}
			rot = eulerXYZ([3]float64{op.Values[0], op.Values[1], op.Values[2]})
		case scene.OpOrient:
			if len(op.Values) != 4 {
				return Box{}, fmt.Errorf("spatial: node %s: %w", n.Name, domain.ErrUnsupportedRotation)
			}
			rot = quatMat(op.Values[0], op.Values[1], op.Values[2], op.Values[3])
		}
	}

	w, l, h := n.Size[0], n.Size[1], n.Size[2]
	corners := make([]domain.Vec3, 0, 8)
	for _, x := range [2]float64{-w / 2, w / 2} {
		for _, y := range [2]float64{0, h} {
			for _, z := range [2]float64{-l / 2, l / 2} {
				c := rot.apply(domain.Vec3{x, y, z})
				for i := 0; i < 3; i++ {
					c[i] += translate[i]
				}
				corners = append(corners, c)
			}
		}
	}
	return boxOf(corners), nil
}
