package scene

import (
	"fmt"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/layout"
)

// Assemble converts a reconciled layout into the terminal scene artifact.
// Deterministic, pure function of its input. The floor is mandatory: an
// invalid floor aborts assembly. Per-object failures (unsupported rotation
// formats) are isolated and returned alongside the scene.
func Assemble(objects layout.Result, floor domain.FloorPlan) (*Scene, []PlacementError, error) {
	mesh, err := BuildFloorMesh(floor)
	if err != nil {
		return nil, nil, err
	}

	s := &Scene{
		Floor:   mesh,
		Objects: make(map[string][]Node, len(objects.Labels)),
	}
	names := make(nameRegistry)

	var failures []PlacementError
	for _, label := range objects.Labels {
		for _, obj := range objects.Objects[label] {
			node, err := buildNode(obj, names)
			if err != nil {
				failures = append(failures, PlacementError{Label: label, Name: obj.ObjectName, Err: err})
				continue
			}
			s.Objects[label] = append(s.Objects[label], node)
		}
		if len(s.Objects[label]) > 0 {
			s.Labels = append(s.Labels, label)
		}
	}
	return s, failures, nil
}

// buildNode emits one object node: position scaled meters→centimeters, the
// rotation representation dispatched on component count, and unit scale.
// Non-uniform per-asset scale is authored at the geometry-reference level,
// never re-derived here.
func buildNode(obj domain.PlacedObject, names nameRegistry) (Node, error) {
	node := Node{
		Name:      names.unique(obj.ObjectName),
		AssetPath: obj.AssetPath,
		Size: [3]float64{
			obj.Size[0] * metersToCM,
			obj.Size[1] * metersToCM,
			obj.Size[2] * metersToCM,
		},
	}

	translate := TransformOp{
		Name:   OpTranslate,
		Values: []float64{obj.Position[0] * metersToCM, obj.Position[1] * metersToCM, obj.Position[2] * metersToCM},
	}
	scale := TransformOp{Name: OpScale, Values: []float64{1, 1, 1}}

	switch len(obj.Rotation) {
	case 3:
		// Euler angles in degrees, applied in X,Y,Z order. Not scaled.
		rotate := TransformOp{Name: OpRotateXYZ, Values: append([]float64(nil), obj.Rotation...)}
		node.Ops = []TransformOp{translate, rotate, scale}
		node.OpOrder = []string{OpTranslate, OpRotateXYZ, OpScale}
	case 4:
		// Scalar-last quaternion (x, y, z, w) reordered to scalar-first.
		orient := TransformOp{
			Name:   OpOrient,
			Values: []float64{obj.Rotation[3], obj.Rotation[0], obj.Rotation[1], obj.Rotation[2]},
		}
		node.Ops = []TransformOp{translate, orient, scale}
		node.OpOrder = []string{OpTranslate, OpOrient, OpScale}
	default:
		return Node{}, fmt.Errorf("%w: %d components", domain.ErrUnsupportedRotation, len(obj.Rotation))
	}
	return node, nil
}
