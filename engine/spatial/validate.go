package spatial

import (
	"fmt"

	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/fn"
)

// DefaultMargin is the out-of-bounds tolerance in centimeters.
const DefaultMargin = 5.0

// volumeEpsilon guards the overlap-ratio division.
const volumeEpsilon = 1e-9

// pairWorkers bounds the concurrency of pairwise intersection computation.
const pairWorkers = 8

// FloorBounds is the floor footprint on the horizontal plane plus the floor
// height. Derived from the floor mesh vertices: X and Z extents, and the
// highest Y among floor points.
type FloorBounds struct {
	XMin, XMax float64
	ZMin, ZMax float64
	FloorY     float64
}

// BoundsFromFloor computes the footprint from a floor mesh.
func BoundsFromFloor(mesh scene.FloorMesh) (FloorBounds, error) {
	if len(mesh.Points) == 0 {
		return FloorBounds{}, fmt.Errorf("spatial: floor mesh has no points")
	}
	fb := FloorBounds{
		XMin: mesh.Points[0][0], XMax: mesh.Points[0][0],
		ZMin: mesh.Points[0][2], ZMax: mesh.Points[0][2],
		FloorY: mesh.Points[0][1],
	}
	for _, p := range mesh.Points[1:] {
		fb.XMin = min(fb.XMin, p[0])
		fb.XMax = max(fb.XMax, p[0])
		fb.ZMin = min(fb.ZMin, p[2])
		fb.ZMax = max(fb.ZMax, p[2])
		fb.FloorY = max(fb.FloorY, p[1])
	}
	return fb, nil
}

// IsOutside reports whether a box escapes the floor footprint by more than
// margin on either horizontal axis, or has its top more than margin below
// the floor plane.
func IsOutside(b Box, fb FloorBounds, margin float64) bool {
	if b.Min[0] < fb.XMin-margin || b.Max[0] > fb.XMax+margin {
		return true
	}
	if b.Min[2] < fb.ZMin-margin || b.Max[2] > fb.ZMax+margin {
		return true
	}
	if b.Max[1] < fb.FloorY-margin {
		return true
	}
	return false
}

// Report holds the two validation metrics over one assembled scene.
type Report struct {
	Objects            int     `json:"objects"`
	OutOfBounds        int     `json:"out_of_bounds"`
	OOBRatio           float64 `json:"oob_ratio"`
	IntersectionVolume float64 `json:"intersection_volume"`
	TotalVolume        float64 `json:"total_volume"`
	// OverlapRatio is total pairwise intersection volume over total box
	// volume. A ratio, not a fraction of geometry: it can exceed 1.0 when
	// many objects heavily overlap.
	OverlapRatio float64 `json:"overlap_ratio"`
}

// Validate computes both metrics for an assembled scene. With zero objects
// the report carries Objects=0 and zero ratios: no data, not an error.
func Validate(s *scene.Scene, margin float64) (Report, error) {
	bounds, err := BoundsFromFloor(s.Floor)
	if err != nil {
		return Report{}, err
	}

	var boxes []Box
	for _, label := range s.Labels {
		for _, node := range s.Objects[label] {
			b, err := BoxForNode(node)
			if err != nil {
				return Report{}, err
			}
			boxes = append(boxes, b)
		}
	}

	report := Report{Objects: len(boxes)}
	if len(boxes) == 0 {
		return report, nil
	}

	for _, b := range boxes {
		report.TotalVolume += b.Volume()
		if IsOutside(b, bounds, margin) {
			report.OutOfBounds++
		}
	}
	report.OOBRatio = float64(report.OutOfBounds) / float64(len(boxes))

	// Pairwise intersection volumes; each pair is a pure function of two
	// boxes, so the pairs are evaluated with bounded parallelism.
	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	volumes := fn.ParMap(pairs, pairWorkers, func(p pair) float64 {
		return IntersectionVolume(boxes[p.i], boxes[p.j])
	})
	for _, v := range volumes {
		report.IntersectionVolume += v
	}

	if report.TotalVolume > volumeEpsilon {
		report.OverlapRatio = report.IntersectionVolume / report.TotalVolume
	}
	return report, nil
}
