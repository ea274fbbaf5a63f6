// Package spatial scores an assembled scene geometrically: the fraction of
// objects escaping the floor footprint and the pairwise bounding-box overlap
// ratio. Both metrics are read-only reductions; they never mutate the scene.
package spatial

import "github.com/AutoSceneAI/autoscene-mvp/engine/domain"

// Box is an axis-aligned bounding box in the target (centimeter) frame.
type Box struct {
	Min domain.Vec3 `json:"min"`
	Max domain.Vec3 `json:"max"`
}

// Volume returns the box volume, clamped at zero for degenerate boxes.
func (b Box) Volume() float64 {
	v := (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1]) * (b.Max[2] - b.Min[2])
	if v < 0 {
		return 0
	}
	return v
}

// Overlaps reports whether two boxes intersect: their projections onto all
// three axes must overlap.
func (b Box) Overlaps(o Box) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// IntersectionVolume returns the volume of the intersection box, zero when
// the boxes are disjoint on any axis.
func IntersectionVolume(a, b Box) float64 {
	if !a.Overlaps(b) {
		return 0
	}
	var lo, hi domain.Vec3
	for i := 0; i < 3; i++ {
		lo[i] = max(a.Min[i], b.Min[i])
		hi[i] = min(a.Max[i], b.Max[i])
	}
	return Box{Min: lo, Max: hi}.Volume()
}

// boxOf returns the AABB of a corner set.
func boxOf(corners []domain.Vec3) Box {
	b := Box{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], c[i])
			b.Max[i] = max(b.Max[i], c[i])
		}
	}
	return b
}
