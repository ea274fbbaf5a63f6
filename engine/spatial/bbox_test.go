package spatial

import (
	"math"
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
)

func unitNode(name string, x, y, z float64) scene.Node {
	return scene.Node{
		Name: name,
		Size: [3]float64{100, 100, 100},
		Ops: []scene.TransformOp{
			{Name: scene.OpTranslate, Values: []float64{x, y, z}},
			{Name: scene.OpRotateXYZ, Values: []float64{0, 0, 0}},
			{Name: scene.OpScale, Values: []float64{1, 1, 1}},
		},
		OpOrder: []string{scene.OpTranslate, scene.OpRotateXYZ, scene.OpScale},
	}
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestBoxForNodeUnrotated(t *testing.T) {
	b, err := BoxForNode(unitNode("n", 200, 0, 300))
	if err != nil {
		t.Fatalf("box failed: %v", err)
	}
	// Base-at-origin local box: x and z centered, y from 0 to height.
	if !almost(b.Min[0], 150) || !almost(b.Max[0], 250) {
		t.Fatalf("x extent [%g, %g]", b.Min[0], b.Max[0])
	}
	if !almost(b.Min[1], 0) || !almost(b.Max[1], 100) {
		t.Fatalf("y extent [%g, %g]", b.Min[1], b.Max[1])
	}
	if !almost(b.Min[2], 250) || !almost(b.Max[2], 350) {
		t.Fatalf("z extent [%g, %g]", b.Min[2], b.Max[2])
	}
}

func TestBoxForNodeEulerY90SwapsFootprint(t *testing.T) {
	n := scene.Node{
		Name: "n",
		Size: [3]float64{200, 100, 100}, // width 200, length 100
		Ops: []scene.TransformOp{
			{Name: scene.OpTranslate, Values: []float64{0, 0, 0}},
			{Name: scene.OpRotateXYZ, Values: []float64{0, 90, 0}},
			{Name: scene.OpScale, Values: []float64{1, 1, 1}},
		},
	}
	b, err := BoxForNode(n)
	if err != nil {
		t.Fatalf("box failed: %v", err)
	}
	if !almost(b.Max[0]-b.Min[0], 100) || !almost(b.Max[2]-b.Min[2], 200) {
		t.Fatalf("footprint %gx%g, want 100x200", b.Max[0]-b.Min[0], b.Max[2]-b.Min[2])
	}
}

func TestBoxForNodeQuaternionY90SwapsFootprint(t *testing.T) {
	h := math.Sqrt2 / 2
	n := scene.Node{
		Name: "n",
		Size: [3]float64{200, 100, 100},
		Ops: []scene.TransformOp{
			{Name: scene.OpTranslate, Values: []float64{0, 0, 0}},
			// 90 degrees about Y, scalar-first (w, x, y, z).
			{Name: scene.OpOrient, Values: []float64{h, 0, h, 0}},
			{Name: scene.OpScale, Values: []float64{1, 1, 1}},
		},
	}
	b, err := BoxForNode(n)
	if err != nil {
		t.Fatalf("box failed: %v", err)
	}
	if !almost(b.Max[0]-b.Min[0], 100) || !almost(b.Max[2]-b.Min[2], 200) {
		t.Fatalf("footprint %gx%g, want 100x200", b.Max[0]-b.Min[0], b.Max[2]-b.Min[2])
	}
}

func TestIntersectionVolume(t *testing.T) {
	a := Box{Min: domain.Vec3{0, 0, 0}, Max: domain.Vec3{100, 100, 100}}
	b := Box{Min: domain.Vec3{50, 0, 0}, Max: domain.Vec3{150, 100, 100}}
	if v := IntersectionVolume(a, b); !almost(v, 50*100*100) {
		t.Fatalf("volume %g", v)
	}

	c := Box{Min: domain.Vec3{200, 0, 0}, Max: domain.Vec3{300, 100, 100}}
	if v := IntersectionVolume(a, c); v != 0 {
		t.Fatalf("disjoint volume %g", v)
	}
	// Touching faces count as overlap with zero volume.
	d := Box{Min: domain.Vec3{100, 0, 0}, Max: domain.Vec3{200, 100, 100}}
	if !a.Overlaps(d) {
		t.Fatal("touching boxes should overlap")
	}
	if v := IntersectionVolume(a, d); v != 0 {
		t.Fatalf("touching volume %g", v)
	}
}
