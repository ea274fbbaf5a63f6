package catalog

import (
	"fmt"
	"strings"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/google/uuid"
)

// ToRecord normalizes a raw library entry into a query-ready asset record.
func ToRecord(raw RawAsset) domain.AssetRecord {
	return domain.AssetRecord{
		AssetID:     raw.ModelID,
		Dataset:     raw.Dataset,
		Category:    strings.ToLower(strings.TrimSpace(raw.Category)),
		Label:       domain.NormalizeLabel(raw.Label),
		Description: raw.MetaData.Description,
		Frontview:   raw.MetaData.Frontview,
		Width:       raw.MetaData.Width,
		Length:      raw.MetaData.Length,
		Height:      raw.MetaData.Height,
		Scale:       raw.MetaData.Scale,
		OnFloor:     raw.MetaData.OnFloor,
		OnWall:      raw.MetaData.OnWall,
		OnCeiling:   raw.MetaData.OnCeiling,
		OnObject:    raw.MetaData.OnObject,
		Path:        raw.Path,
	}
}

// CategoryString is the text embedded into the category vector space:
// "label,category", or just the category when the label is missing.
func CategoryString(a domain.AssetRecord) string {
	if a.Label == "" {
		return a.Category
	}
	return a.Label + "," + a.Category
}

// PointID derives a deterministic point UUID from the asset identity, so
// re-ingesting a library overwrites rather than duplicates.
func PointID(a domain.AssetRecord) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s:%s", a.Dataset, a.AssetID))).String()
}

// Payload builds the stored point payload. Field names are the index's wire
// schema, consumed back by engine/semantic on search.
func Payload(a domain.AssetRecord) map[string]any {
	return map[string]any{
		"asset_id":    a.AssetID,
		"description": a.Description,
		"category":    a.Category,
		"frontview":   a.Frontview,
		"path":        a.Path,
		"dataset":     a.Dataset,
		"label":       a.Label,
		"onCeiling":   a.OnCeiling,
		"onWall":      a.OnWall,
		"onFloor":     a.OnFloor,
		"onObject":    a.OnObject,
		"scale":       a.Scale,
		"boundingbox": [3]float64{a.Width, a.Length, a.Height},
	}
}
