// Package scene is the unit and coordinate-frame boundary of the pipeline.
// It converts reconciled layouts (meters, Euler-or-quaternion rotations) into
// the target scene conventions: centimeters, explicit transform-operator
// stacks, sanitized node identifiers, and a triangulated floor mesh. All
// unit and axis conversions live here and nowhere else.
package scene

import "github.com/AutoSceneAI/autoscene-mvp/engine/domain"

// Transform operator names, mirroring the target scene format's stack.
const (
	OpTranslate = "translate"
	OpRotateXYZ = "rotateXYZ"
	OpOrient    = "orient"
	OpScale     = "scale"
)

// metersToCM is the position/vertex unit conversion factor. Rotations are
// never scaled.
const metersToCM = 100.0

// TransformOp is one operator in a node's transform stack.
type TransformOp struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Node is one placed object: a reference to externally stored geometry plus
// its transform stack in explicit operator order.
type Node struct {
	Name      string        `json:"name"`
	AssetPath string        `json:"path"`
	Size      [3]float64    `json:"size"` // cm, scaled authored extent
	Ops       []TransformOp `json:"ops"`
	OpOrder   []string      `json:"op_order"`
}

// FloorMesh is the triangulated floor: vertices in centimeters, exactly two
// triangles, optional texture coordinates.
type FloorMesh struct {
	Name              string       `json:"name"`
	Points            []domain.Vec3 `json:"points"`
	FaceVertexCounts  []int        `json:"face_vertex_counts"`
	FaceVertexIndices []int        `json:"face_vertex_indices"`
	UV                [][2]float64 `json:"uv,omitempty"`
}

// Scene is the terminal artifact. Built once, never mutated afterward.
type Scene struct {
	Floor   FloorMesh         `json:"floor"`
	Labels  []string          `json:"labels"`
	Objects map[string][]Node `json:"objects"`
}

// PlacementError records a single object whose placement failed; it never
// aborts sibling placements.
type PlacementError struct {
	Label string `json:"label"`
	Name  string `json:"name"`
	Err   error  `json:"-"`
}

func (e PlacementError) Error() string {
	return "scene: place " + e.Label + "/" + e.Name + ": " + e.Err.Error()
}

func (e PlacementError) Unwrap() error { return e.Err }
