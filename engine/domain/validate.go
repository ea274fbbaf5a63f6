package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minDescriptionLength = 5
	maxDescriptionLength = 4096
)

// Patterns that should never appear in a room description. The description
// is interpolated into a generation prompt, so template fragments and
// role-marker injection attempts are rejected up front.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\{.*\}`),
	regexp.MustCompile(`(?i)\{\{.*\}\}`),
	regexp.MustCompile(`(?i)^\s*(system|assistant)\s*:`),
	regexp.MustCompile(`(?i)ignore (all|any|previous) instructions`),
}

// ValidateDescription validates a user room description before it enters the
// pipeline.
func ValidateDescription(text string) error {
	trimmed := strings.TrimSpace(text)

	n := utf8.RuneCountInString(trimmed)
	if n < minDescriptionLength {
		return NewValidationError("description", trimmed, ErrDescriptionTooShort)
	}
	if n > maxDescriptionLength {
		return NewValidationError("description", trimmed[:64]+"...", ErrDescriptionTooLong)
	}

	for _, pat := range unsafePatterns {
		if pat.MatchString(trimmed) {
			return NewValidationError("description", trimmed, ErrDescriptionUnsafe)
		}
	}
	return nil
}

// ValidateAssetRecord checks a catalog record before ingestion. Records with
// non-positive extents or missing identity would poison retrieval results.
func ValidateAssetRecord(a AssetRecord) error {
	if a.AssetID == "" {
		return NewValidationError("asset_id", "", ErrInvalidAsset)
	}
	if a.Path == "" {
		return NewValidationError("path", "", ErrInvalidAsset)
	}
	if a.Category == "" {
		return NewValidationError("category", "", ErrInvalidAsset)
	}
	for _, d := range []struct {
		name string
		v    float64
	}{{"width", a.Width}, {"length", a.Length}, {"height", a.Height}} {
		if d.v <= 0 {
			return NewValidationError(d.name, fmt.Sprintf("%g", d.v), ErrInvalidAsset)
		}
	}
	for i, s := range a.Scale {
		if s <= 0 {
			return NewValidationError(fmt.Sprintf("scale[%d]", i), fmt.Sprintf("%g", s), ErrInvalidAsset)
		}
	}
	return nil
}

// NormalizeLabel case-normalizes an object label so generator keys and
// retrieval keys meet in the same namespace: first rune upper, rest lower.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return label
	}
	r, size := utf8.DecodeRuneInString(label)
	return string(unicode.ToUpper(r)) + strings.ToLower(label[size:])
}
