// Package prompt builds the instructions sent to the generation backend and
// parses its free-form text output back into structured layout data.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

// ReasoningMarker delimits an optional internal reasoning segment in
// generator output. Only text after the last occurrence is kept: the content
// itself can legitimately contain the marker string.
const ReasoningMarker = "</think>"

// StripReasoning removes the reasoning segment and normalizes whitespace:
// text before the last marker occurrence is discarded (even when nothing
// follows it), surrounding whitespace is trimmed, and blank lines dropped.
func StripReasoning(raw string) string {
	cleaned := raw
	if i := strings.LastIndex(raw, ReasoningMarker); i >= 0 {
		cleaned = raw[i+len(ReasoningMarker):]
	}
	cleaned = strings.Trim(cleaned, "\n\t\r\f ")

	lines := strings.Split(cleaned, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}

// decodeStrict parses cleaned generator text as JSON into v. Malformed input
// is rejected, never repaired: coercing broken brackets or quotes would mask
// generation failures.
func decodeStrict(raw string, v any) error {
	cleaned := StripReasoning(raw)
	if cleaned == "" {
		return domain.NewMalformedResponse(raw, errors.New("empty response"))
	}
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(v); err != nil {
		return domain.NewMalformedResponse(raw, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.NewMalformedResponse(raw, errors.New("trailing data after JSON value"))
	}
	return nil
}

// ParseRoomPlan parses the room decomposition response.
func ParseRoomPlan(raw string) (domain.RoomPlan, error) {
	var plan domain.RoomPlan
	if err := decodeStrict(raw, &plan); err != nil {
		return domain.RoomPlan{}, err
	}
	if plan.RoomType == "" {
		return domain.RoomPlan{}, domain.NewMalformedResponse(raw, errors.New("missing room_type"))
	}
	return plan, nil
}

// ParseLayout parses the layout generation response, preserving the
// generator's key order for object labels. The reserved Floor key is routed
// to the floor plan.
func ParseLayout(raw string) (domain.LayoutResult, error) {
	cleaned := StripReasoning(raw)
	if cleaned == "" {
		return domain.LayoutResult{}, domain.NewMalformedResponse(raw, errors.New("empty response"))
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	tok, err := dec.Token()
	if err != nil {
		return domain.LayoutResult{}, domain.NewMalformedResponse(raw, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return domain.LayoutResult{}, domain.NewMalformedResponse(raw, fmt.Errorf("expected object, got %v", tok))
	}

	result := domain.LayoutResult{Poses: make(map[string][]domain.Pose)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return domain.LayoutResult{}, domain.NewMalformedResponse(raw, err)
		}
		key := keyTok.(string)

		if key == domain.FloorKey {
			if err := dec.Decode(&result.Floor); err != nil {
				return domain.LayoutResult{}, domain.NewMalformedResponse(raw, fmt.Errorf("floor: %w", err))
			}
			continue
		}

		var poses []domain.Pose
		if err := dec.Decode(&poses); err != nil {
			return domain.LayoutResult{}, domain.NewMalformedResponse(raw, fmt.Errorf("label %q: %w", key, err))
		}
		if _, seen := result.Poses[key]; !seen {
			result.Labels = append(result.Labels, key)
		}
		result.Poses[key] = poses
	}

	// Consume the closing brace and require EOF after it.
	if _, err := dec.Token(); err != nil {
		return domain.LayoutResult{}, domain.NewMalformedResponse(raw, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.LayoutResult{}, domain.NewMalformedResponse(raw, errors.New("trailing data after layout"))
	}
	return result, nil
}
