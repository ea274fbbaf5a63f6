// Package catalog normalizes raw per-asset library metadata into query-ready
// records and provides the ingestion pipeline that embeds and stores them in
// the vector index.
package catalog

import "github.com/AutoSceneAI/autoscene-mvp/engine/domain"

// RawAsset is the on-disk metadata schema of one library asset, as authored
// by the content pipeline (assets.json).
type RawAsset struct {
	Dataset  string   `json:"dataset"`
	ModelID  string   `json:"model_id"`
	Category string   `json:"category"`
	Label    string   `json:"label"`
	Path     string   `json:"path"`
	MetaData RawMeta  `json:"meta_data"`
}

// RawMeta is the nested meta_data block of a RawAsset.
type RawMeta struct {
	Category    string     `json:"category"`
	Synset      string     `json:"synset"`
	Width       float64    `json:"width"`
	Length      float64    `json:"length"`
	Height      float64    `json:"height"`
	Volume      float64    `json:"volume"`
	Mass        float64    `json:"mass"`
	Frontview   int        `json:"frontview"`
	Description string     `json:"description"`
	Materials   []string   `json:"materials"`
	OnCeiling   bool       `json:"onCeiling"`
	OnWall      bool       `json:"onWall"`
	OnFloor     bool       `json:"onFloor"`
	OnObject    bool       `json:"onObject"`
	Scale       [3]float64 `json:"scale"`
}

// EmbeddedAsset is a validated record with both vector-space embeddings
// computed, ready for storage.
type EmbeddedAsset struct {
	Record      domain.AssetRecord
	Description []float32
	Category    []float32
}
