package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

func testScene() *Scene {
	return &Scene{
		Floor: FloorMesh{
			Name:              "infer_floor",
			Points:            []domain.Vec3{{500, 0, 500}, {500, 0, 0}, {0, 0, 500}, {0, 0, 0}},
			FaceVertexCounts:  []int{3, 3},
			FaceVertexIndices: []int{0, 1, 2, 1, 3, 2},
		},
		Labels: []string{"Sofa"},
		Objects: map[string][]Node{
			"Sofa": {{
				Name:      "infer_s1",
				AssetPath: "assets/s1.glb",
				Size:      [3]float64{210, 90, 80},
				Ops: []TransformOp{
					{Name: OpTranslate, Values: []float64{150, 0, 200}},
					{Name: OpRotateXYZ, Values: []float64{0, 90, 0}},
					{Name: OpScale, Values: []float64{1, 1, 1}},
				},
				OpOrder: []string{OpTranslate, OpRotateXYZ, OpScale},
			}},
		},
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testScene()

	if err := Write(dir, want); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for _, f := range []string{SceneFile, ObjectsFile, FloorFile} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("missing artifact %s: %v", f, err)
		}
	}

	got, err := Read(dir)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Floor.Name != want.Floor.Name || len(got.Floor.Points) != 4 {
		t.Fatalf("floor %+v", got.Floor)
	}
	if len(got.Labels) != 1 || got.Labels[0] != "Sofa" {
		t.Fatalf("labels %v", got.Labels)
	}
	node := got.Objects["Sofa"][0]
	if node.Name != "infer_s1" || node.Size != [3]float64{210, 90, 80} {
		t.Fatalf("node %+v", node)
	}
	if len(node.Ops) != 3 || node.Ops[1].Values[1] != 90 {
		t.Fatalf("ops %+v", node.Ops)
	}
}

func TestReadMissingDir(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
