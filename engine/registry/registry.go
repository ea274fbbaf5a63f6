// Package registry records scene→asset lineage in Neo4j: which assets each
// synthesized scene placed, queryable in both directions. Used for catalog
// curation (e.g. retiring an asset means knowing which scenes reference it).
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// SceneRecord identifies one synthesized scene.
type SceneRecord struct {
	ID          string    `json:"id"`
	RoomType    string    `json:"room_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Placement is one scene→asset edge.
type Placement struct {
	NodeName string `json:"node_name"`
	Path     string `json:"path"`
	Label    string `json:"label"`
	Index    int    `json:"index"`
}

// PlacementsOf flattens an assembled scene into lineage edges, following the
// scene's label order.
func PlacementsOf(s *scene.Scene) []Placement {
	var out []Placement
	for _, label := range s.Labels {
		for i, node := range s.Objects[label] {
			out = append(out, Placement{
				NodeName: node.Name,
				Path:     node.AssetPath,
				Label:    label,
				Index:    i,
			})
		}
	}
	return out
}

// queryResult is the minimal surface needed from a neo4j result.
type queryResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// runner is the minimal surface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (queryResult, error)
	Close(ctx context.Context) error
}

// sessionAdapter adapts neo4j.SessionWithContext to the runner interface.
type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (queryResult, error) {
	res, err := a.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

// Store provides lineage operations on a Neo4j driver.
type Store struct {
	driver     neo4j.DriverWithContext
	newSession func(ctx context.Context) runner // for testing
}

// New creates a Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

func (s *Store) session(ctx context.Context) runner {
	if s.newSession != nil {
		return s.newSession(ctx)
	}
	return &sessionAdapter{sess: s.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// SaveScene upserts the scene node and one PLACES edge per placement. Assets
// are keyed by their repository path, the stable cross-store identity.
func (s *Store) SaveScene(ctx context.Context, rec SceneRecord, placements []Placement) error {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx,
		`MERGE (s:Scene {id: $id})
		 SET s.room_type = $room_type, s.description = $description, s.created_at = $created_at`,
		map[string]any{
			"id":          rec.ID,
			"room_type":   rec.RoomType,
			"description": rec.Description,
			"created_at":  rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	if err != nil {
		return fmt.Errorf("registry: save scene %s: %w", rec.ID, err)
	}

	for _, p := range placements {
		_, err := sess.Run(ctx,
			`MERGE (a:Asset {path: $path})
			 WITH a
			 MATCH (s:Scene {id: $id})
			 MERGE (s)-[r:PLACES {node_name: $node_name}]->(a)
			 SET r.label = $label, r.idx = $idx`,
			map[string]any{
				"id":        rec.ID,
				"path":      p.Path,
				"node_name": p.NodeName,
				"label":     p.Label,
				"idx":       p.Index,
			})
		if err != nil {
			return fmt.Errorf("registry: save placement %s/%s: %w", rec.ID, p.NodeName, err)
		}
	}
	return nil
}

// ScenesUsingAsset returns every scene that placed the asset at path.
func (s *Store) ScenesUsingAsset(ctx context.Context, path string) ([]SceneRecord, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (s:Scene)-[:PLACES]->(a:Asset {path: $path}) RETURN DISTINCT s`,
		map[string]any{"path": path})
	if err != nil {
		return nil, fmt.Errorf("registry: scenes using %s: %w", path, err)
	}
	return collectScenes(ctx, result)
}

// PlacementsInScene returns the lineage edges of one scene.
func (s *Store) PlacementsInScene(ctx context.Context, sceneID string) ([]Placement, error) {
	sess := s.session(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (s:Scene {id: $id})-[r:PLACES]->(a:Asset)
		 RETURN r.node_name AS node_name, r.label AS label, r.idx AS idx, a.path AS path
		 ORDER BY r.label, r.idx`,
		map[string]any{"id": sceneID})
	if err != nil {
		return nil, fmt.Errorf("registry: placements in %s: %w", sceneID, err)
	}

	var out []Placement
	for result.Next(ctx) {
		rec := result.Record()
		p := Placement{}
		if v, ok := rec.Get("node_name"); ok {
			p.NodeName, _ = v.(string)
		}
		if v, ok := rec.Get("label"); ok {
			p.Label, _ = v.(string)
		}
		if v, ok := rec.Get("idx"); ok {
			if n, ok := v.(int64); ok {
				p.Index = int(n)
			}
		}
		if v, ok := rec.Get("path"); ok {
			p.Path, _ = v.(string)
		}
		out = append(out, p)
	}
	return out, result.Err()
}

func collectScenes(ctx context.Context, result queryResult) ([]SceneRecord, error) {
	var out []SceneRecord
	for result.Next(ctx) {
		rec := result.Record()
		v, ok := rec.Get("s")
		if !ok {
			continue
		}
		node, ok := v.(dbtype.Node)
		if !ok {
			continue
		}
		sr := SceneRecord{}
		if id, ok := node.Props["id"].(string); ok {
			sr.ID = id
		}
		if rt, ok := node.Props["room_type"].(string); ok {
			sr.RoomType = rt
		}
		if d, ok := node.Props["description"].(string); ok {
			sr.Description = d
		}
		if ts, ok := node.Props["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				sr.CreatedAt = t
			}
		}
		out = append(out, sr)
	}
	return out, result.Err()
}
