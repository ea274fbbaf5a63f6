// Package domain defines core domain types, constants, and validation for the
// AutoScene synthesis pipeline. It acts as the validation gate at pipeline
// entry points and owns the shared error taxonomy.
package domain

import "math"

// Vec3 is a 3-component vector (X, Y, Z). Y points up; the floor is y=0.
type Vec3 [3]float64

// X returns the first component.
func (v Vec3) X() float64 { return v[0] }

// Y returns the second component.
func (v Vec3) Y() float64 { return v[1] }

// Z returns the third component.
func (v Vec3) Z() float64 { return v[2] }

// Scale returns v with every component multiplied by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v[0] * f, v[1] * f, v[2] * f}
}

// AssetRecord is a query-ready view of one authored 3D asset in the content
// library. Records are immutable after catalog ingestion; retrieval results
// reference them without copying.
type AssetRecord struct {
	AssetID     string     `json:"asset_id"`
	Dataset     string     `json:"dataset"`
	Category    string     `json:"category"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Frontview   int        `json:"frontview"`
	Width       float64    `json:"width"`
	Length      float64    `json:"length"`
	Height      float64    `json:"height"`
	Scale       [3]float64 `json:"scale"`
	OnFloor     bool       `json:"on_floor"`
	OnWall      bool       `json:"on_wall"`
	OnCeiling   bool       `json:"on_ceiling"`
	OnObject    bool       `json:"on_object"`
	Path        string     `json:"path"`
}

// BBox returns the placement footprint [width, length, height] in meters with
// the per-asset non-uniform scale applied, rounded to two decimals.
func (a AssetRecord) BBox() [3]float64 {
	dims := [3]float64{a.Width, a.Length, a.Height}
	for i := range dims {
		dims[i] = math.Round(dims[i]*a.Scale[i]*100) / 100
	}
	return dims
}

// RetrievedCandidate pairs an asset record with its similarity score.
type RetrievedCandidate struct {
	Asset AssetRecord `json:"asset"`
	Score float32     `json:"score"`
}

// ObjectRequest is one object the room decomposition step asked for.
type ObjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoomPlan is the parsed output of the room decomposition call.
type RoomPlan struct {
	RoomType string          `json:"room_type"`
	Objects  []ObjectRequest `json:"objects"`
}

// ObjectPrompt is the per-instance information handed to the layout
// generator: the scaled bounding box and, optionally, the description.
type ObjectPrompt struct {
	BBox        [3]float64 `json:"bbox"`
	Description string     `json:"description,omitempty"`
}

// RoomSpec carries everything needed to prompt the layout generator plus the
// parallel record of which assets were actually retrieved per label. The
// generator only emits geometry, so the retrieved identities are needed again
// at reconciliation time.
type RoomSpec struct {
	RoomType  string
	Labels    []string // label insertion order, stable across both maps
	Prompted  map[string][]ObjectPrompt
	Retrieved map[string][]AssetRecord
}

// Pose is a generated placement for a single object instance. Rotation is
// either 3 Euler angles in degrees (XYZ order) or a scalar-last quaternion
// (x, y, z, w); any other length is rejected at assembly.
type Pose struct {
	Position Vec3      `json:"position"`
	Rotation []float64 `json:"rotation"`
}

// FloorPlan is the generator's floor entry: 3 or 4 plan vertices in meters,
// with optional raw UV pairs and an optional row-major 3x3 texture transform.
type FloorPlan struct {
	XYZ      []Vec3    `json:"xyz"`
	UV       []float64 `json:"uv,omitempty"`
	Material []float64 `json:"material,omitempty"`
}

// LayoutResult is the parsed output of the layout generation call. Labels
// preserves the generator's key order (excluding the reserved Floor key).
type LayoutResult struct {
	Floor  FloorPlan
	Labels []string
	Poses  map[string][]Pose
}

// PlacedObject reconciles one retrieved asset with one generated pose. Size
// is the asset's scaled authored extent [width, length, height] in meters; it
// rides along so spatial validation does not need to reopen the asset.
type PlacedObject struct {
	ObjectName string     `json:"object_name"`
	AssetPath  string     `json:"path"`
	Size       [3]float64 `json:"size"`
	Position   Vec3       `json:"position"`
	Rotation   []float64  `json:"rotation"`
}

// FloorKey is the reserved layout key holding the floor polygon.
const FloorKey = "Floor"
