package domain

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON decodes a Vec3 strictly: exactly three numbers. The default
// array decoding would silently pad or truncate, which masks generator
// failures.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != 3 {
		return fmt.Errorf("vec3: expected 3 components, got %d", len(vals))
	}
	copy(v[:], vals)
	return nil
}
