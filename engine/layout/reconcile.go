// Package layout merges generated per-object poses with the asset records
// retrieved earlier for the same semantic label. The merge is best-effort by
// design: the generator is free-form text and may emit more or fewer object
// instances than were retrieved.
package layout

import (
	"log/slog"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

// Miss records one generated pose that had no retrieved asset at the same
// label and ordinal position. Misses are counted and reported, not fatal.
type Miss struct {
	Label string `json:"label"`
	Index int    `json:"index"`
}

// Result is the reconciled object set. Labels preserves the generator's key
// order; object order within a label preserves generation order.
type Result struct {
	Labels  []string
	Objects map[string][]domain.PlacedObject
	Misses  []Miss
}

// Placed returns the total number of reconciled objects.
func (r Result) Placed() int {
	n := 0
	for _, objs := range r.Objects {
		n += len(objs)
	}
	return n
}

// Reconcile pairs each generated pose with the retrieved record at the same
// ordinal position under the same (case-normalized) label. Poses beyond the
// retrieved count, or under a label nothing was retrieved for, are dropped
// and recorded as misses; sibling objects are unaffected. No identity or
// semantic matching beyond "same label, same ordinal" is attempted.
func Reconcile(gen domain.LayoutResult, retrieved map[string][]domain.AssetRecord, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	res := Result{Objects: make(map[string][]domain.PlacedObject, len(gen.Labels))}
	for _, label := range gen.Labels {
		if label == domain.FloorKey {
			continue
		}
		records := retrieved[domain.NormalizeLabel(label)]

		for i, pose := range gen.Poses[label] {
			if i >= len(records) {
				logger.Warn("layout: reconciliation miss",
					"label", label, "index", i, "retrieved", len(records))
				res.Misses = append(res.Misses, Miss{Label: label, Index: i})
				continue
			}
			rec := records[i]
			res.Objects[label] = append(res.Objects[label], domain.PlacedObject{
				ObjectName: "infer_" + rec.AssetID,
				AssetPath:  rec.Path,
				Size:       rec.BBox(),
				Position:   pose.Position,
				Rotation:   pose.Rotation,
			})
		}
		if len(res.Objects[label]) > 0 {
			res.Labels = append(res.Labels, label)
		}
	}
	return res
}
