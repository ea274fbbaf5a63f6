package prompt

import (
	"strings"
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

func TestBuildRoomPromptEmbedsDescription(t *testing.T) {
	p := BuildRoomPrompt("A reading nook with two armchairs.")
	if !strings.Contains(p, "A reading nook with two armchairs.") {
		t.Fatal("description missing from prompt")
	}
	if !strings.Contains(p, `"room_type"`) {
		t.Fatal("response format example missing")
	}
}

func TestBuildLayoutPromptManifestOrder(t *testing.T) {
	objects := map[string][]domain.ObjectPrompt{
		"Sofa":     {{BBox: [3]float64{2.1, 0.9, 0.8}}},
		"Armchair": {{BBox: [3]float64{0.8, 0.8, 1.0}}},
	}
	p := BuildLayoutPrompt("LivingRoom", []string{"Sofa", "Armchair"}, objects)

	if !strings.Contains(p, "LivingRoom") {
		t.Fatal("room type missing")
	}
	sofa := strings.Index(p, `"Sofa"`)
	chair := strings.Index(p, `"Armchair"`)
	if sofa < 0 || chair < 0 {
		t.Fatalf("labels missing (sofa=%d, chair=%d)", sofa, chair)
	}
	if sofa > chair {
		t.Fatal("manifest does not follow label order")
	}
	if !strings.Contains(p, `"bbox":[2.1,0.9,0.8]`) {
		t.Fatalf("bbox missing:\n%s", p)
	}
}

func TestBuildLayoutPromptOmitsEmptyDescription(t *testing.T) {
	objects := map[string][]domain.ObjectPrompt{
		"Desk": {{BBox: [3]float64{1.4, 0.7, 0.75}}},
	}
	p := BuildLayoutPrompt("Office", []string{"Desk"}, objects)
	if strings.Contains(p, `"description"`) {
		t.Fatal("empty description should be omitted from the manifest")
	}
}
