package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names within a scene directory. The objects and floor files
// are the pair consumed by the validation CLI.
const (
	SceneFile   = "scene.json"
	ObjectsFile = "objects.json"
	FloorFile   = "floor.json"
)

// objectsDoc is the on-disk shape of the object placements artifact.
type objectsDoc struct {
	Labels  []string          `json:"labels"`
	Objects map[string][]Node `json:"objects"`
}

// Write persists the three scene artifacts into dir, creating it if needed.
func Write(dir string, s *Scene) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scene: mkdir %s: %w", dir, err)
	}

	files := map[string]any{
		SceneFile:   s,
		ObjectsFile: objectsDoc{Labels: s.Labels, Objects: s.Objects},
		FloorFile:   s.Floor,
	}
	for name, doc := range files {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("scene: marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("scene: write %s: %w", name, err)
		}
	}
	return nil
}

// Read loads an assembled scene back from its objects and floor artifacts.
func Read(dir string) (*Scene, error) {
	var objs objectsDoc
	if err := readJSON(filepath.Join(dir, ObjectsFile), &objs); err != nil {
		return nil, err
	}
	var floor FloorMesh
	if err := readJSON(filepath.Join(dir, FloorFile), &floor); err != nil {
		return nil, err
	}
	return &Scene{Floor: floor, Labels: objs.Labels, Objects: objs.Objects}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("scene: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return nil
}
