package catalog

import (
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

func rawSofa() RawAsset {
	return RawAsset{
		Dataset:  "objaverse",
		ModelID:  "abc123",
		Category: " Sofa ",
		Label:    "sofa",
		Path:     "assets/objaverse/abc123.glb",
		MetaData: RawMeta{
			Description: "A dark green upholstered sofa.",
			Frontview:   2,
			Width:       2.1, Length: 0.9, Height: 0.8,
			OnFloor: true,
			Scale:   [3]float64{1, 1, 1},
		},
	}
}

func TestToRecordNormalizes(t *testing.T) {
	rec := ToRecord(rawSofa())
	if rec.Category != "sofa" {
		t.Fatalf("category %q", rec.Category)
	}
	if rec.Label != "Sofa" {
		t.Fatalf("label %q", rec.Label)
	}
	if rec.AssetID != "abc123" || rec.Dataset != "objaverse" {
		t.Fatalf("identity %q/%q", rec.Dataset, rec.AssetID)
	}
	if rec.Frontview != 2 || !rec.OnFloor || rec.OnWall {
		t.Fatalf("metadata %+v", rec)
	}
}

func TestCategoryString(t *testing.T) {
	rec := domain.AssetRecord{Label: "Sofa", Category: "sofa"}
	if got := CategoryString(rec); got != "Sofa,sofa" {
		t.Fatalf("got %q", got)
	}
	rec.Label = ""
	if got := CategoryString(rec); got != "sofa" {
		t.Fatalf("got %q", got)
	}
}

func TestPointIDDeterministic(t *testing.T) {
	a := ToRecord(rawSofa())
	if PointID(a) != PointID(a) {
		t.Fatal("same identity must derive the same point id")
	}

	b := a
	b.AssetID = "other"
	if PointID(a) == PointID(b) {
		t.Fatal("distinct assets must not collide")
	}

	c := a
	c.Dataset = "future"
	if PointID(a) == PointID(c) {
		t.Fatal("same model id in a different dataset must not collide")
	}
}

func TestPayloadSchema(t *testing.T) {
	rec := ToRecord(rawSofa())
	p := Payload(rec)

	if p["asset_id"] != "abc123" || p["dataset"] != "objaverse" {
		t.Fatalf("identity fields %v", p)
	}
	if p["label"] != "Sofa" || p["category"] != "sofa" {
		t.Fatalf("label fields %v", p)
	}
	if p["onFloor"] != true || p["onWall"] != false {
		t.Fatalf("placement flags %v", p)
	}
	if p["frontview"] != 2 {
		t.Fatalf("frontview %v", p["frontview"])
	}
	bb, ok := p["boundingbox"].([3]float64)
	if !ok || bb != [3]float64{2.1, 0.9, 0.8} {
		t.Fatalf("boundingbox %v", p["boundingbox"])
	}
}
