package scene

import (
	"fmt"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/google/uuid"
)

// Triangle fans for the two supported vertex counts. A quadrilateral uses a
// fixed fan from vertex 0 (assumes the generator's winding); a triangle is
// emitted with both windings so the mesh stays double-sided and always has
// exactly two faces.
var (
	quadFan = [2][3]int{{0, 1, 2}, {1, 3, 2}}
	triFan  = [2][3]int{{0, 1, 2}, {0, 2, 1}}
)

// BuildFloorMesh converts the generator's floor polygon (meters) into the
// target mesh: vertices in centimeters, two triangles, optional texture
// coordinates run through the 2-row affine texture transform when one is
// present. Vertex counts other than 3 or 4 fail with ErrInvalidFloorGeometry:
// an invalid floor makes the whole scene meaningless.
func BuildFloorMesh(fp domain.FloorPlan) (FloorMesh, error) {
	var fan [2][3]int
	switch len(fp.XYZ) {
	case 3:
		fan = triFan
	case 4:
		fan = quadFan
	default:
		return FloorMesh{}, fmt.Errorf("%w: %d vertices", domain.ErrInvalidFloorGeometry, len(fp.XYZ))
	}

	mesh := FloorMesh{
		Name:             SanitizeName("infer_" + uuid.New().String()),
		Points:           make([]domain.Vec3, len(fp.XYZ)),
		FaceVertexCounts: []int{3, 3},
	}
	for i, p := range fp.XYZ {
		mesh.Points[i] = p.Scale(metersToCM)
	}
	for _, face := range fan {
		mesh.FaceVertexIndices = append(mesh.FaceVertexIndices, face[0], face[1], face[2])
	}

	mesh.UV = transformUV(fp.UV, fp.Material)
	return mesh, nil
}

// transformUV reshapes flat UV values into pairs and, when a row-major 3x3
// texture matrix is present, applies its upper-left 2x2 block to each pair.
// Odd-length UV data is dropped entirely: texture coordinates are optional
// and a half pair is authoring noise, not geometry.
func transformUV(uv []float64, material []float64) [][2]float64 {
	if len(uv) == 0 || len(uv)%2 != 0 {
		return nil
	}

	var m [2][2]float64
	hasMat := len(material) == 9
	if hasMat {
		m = [2][2]float64{
			{material[0], material[1]},
			{material[3], material[4]},
		}
	}

	out := make([][2]float64, 0, len(uv)/2)
	for i := 0; i+1 < len(uv); i += 2 {
		u, v := uv[i], uv[i+1]
		if hasMat {
			u, v = m[0][0]*uv[i]+m[0][1]*uv[i+1], m[1][0]*uv[i]+m[1][1]*uv[i+1]
		}
		out = append(out, [2]float64{u, v})
	}
	return out
}
