package spatial

import (
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
)

// 400x400cm floor at y=0.
var testFloorMesh = scene.FloorMesh{
	Name:   "infer_floor",
	Points: []domain.Vec3{{400, 0, 400}, {400, 0, 0}, {0, 0, 400}, {0, 0, 0}},
}

func sceneWith(nodes ...scene.Node) *scene.Scene {
	s := &scene.Scene{
		Floor:   testFloorMesh,
		Labels:  []string{"Things"},
		Objects: map[string][]scene.Node{"Things": nodes},
	}
	return s
}

func TestBoundsFromFloor(t *testing.T) {
	fb, err := BoundsFromFloor(testFloorMesh)
	if err != nil {
		t.Fatalf("bounds failed: %v", err)
	}
	if fb.XMin != 0 || fb.XMax != 400 || fb.ZMin != 0 || fb.ZMax != 400 || fb.FloorY != 0 {
		t.Fatalf("bounds %+v", fb)
	}

	if _, err := BoundsFromFloor(scene.FloorMesh{}); err == nil {
		t.Fatal("empty mesh should fail")
	}
}

func TestIsOutside(t *testing.T) {
	fb := FloorBounds{XMin: 0, XMax: 400, ZMin: 0, ZMax: 400, FloorY: 0}
	inside := Box{Min: domain.Vec3{100, 0, 100}, Max: domain.Vec3{200, 100, 200}}
	if IsOutside(inside, fb, DefaultMargin) {
		t.Fatal("inside box flagged")
	}

	// Escapes within the margin on one side.
	grazing := Box{Min: domain.Vec3{-4, 0, 100}, Max: domain.Vec3{100, 100, 200}}
	if IsOutside(grazing, fb, DefaultMargin) {
		t.Fatal("margin escape flagged")
	}

	beyond := Box{Min: domain.Vec3{-6, 0, 100}, Max: domain.Vec3{100, 100, 200}}
	if !IsOutside(beyond, fb, DefaultMargin) {
		t.Fatal("escape past margin not flagged")
	}

	// Sunk: the box top is more than margin below the floor plane.
	sunk := Box{Min: domain.Vec3{100, -200, 100}, Max: domain.Vec3{200, -6, 200}}
	if !IsOutside(sunk, fb, DefaultMargin) {
		t.Fatal("sunk box not flagged")
	}
}

func TestValidateAllInside(t *testing.T) {
	s := sceneWith(
		unitNode("a", 100, 0, 100),
		unitNode("b", 300, 0, 300),
	)
	report, err := Validate(s, DefaultMargin)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if report.Objects != 2 || report.OutOfBounds != 0 || report.OOBRatio != 0 {
		t.Fatalf("report %+v", report)
	}
	if report.OverlapRatio != 0 || report.IntersectionVolume != 0 {
		t.Fatalf("disjoint boxes reported overlap: %+v", report)
	}
}

func TestValidateOOBRatio(t *testing.T) {
	s := sceneWith(
		unitNode("in", 200, 0, 200),
		unitNode("out", 1000, 0, 200),
	)
	report, err := Validate(s, DefaultMargin)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if report.OutOfBounds != 1 || report.OOBRatio != 0.5 {
		t.Fatalf("report %+v", report)
	}
}

func TestValidateOverlapRatio(t *testing.T) {
	// Two unit boxes offset by half a side: intersection 500000,
	// total volume 2000000, ratio 0.25.
	s := sceneWith(
		unitNode("a", 200, 0, 200),
		unitNode("b", 250, 0, 200),
	)
	report, err := Validate(s, DefaultMargin)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !almost(report.IntersectionVolume, 500000) {
		t.Fatalf("intersection %g", report.IntersectionVolume)
	}
	if !almost(report.OverlapRatio, 0.25) {
		t.Fatalf("overlap ratio %g", report.OverlapRatio)
	}
}

func TestValidateEmptyScene(t *testing.T) {
	s := &scene.Scene{Floor: testFloorMesh, Objects: map[string][]scene.Node{}}
	report, err := Validate(s, DefaultMargin)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if report.Objects != 0 || report.OOBRatio != 0 || report.OverlapRatio != 0 {
		t.Fatalf("report %+v", report)
	}
}
