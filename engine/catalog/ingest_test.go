package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
)

// mockEmbedder records the texts it was asked to embed.
type mockEmbedder struct {
	texts []string
	err   error
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		m.texts = append(m.texts, text)
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func TestValidateStage(t *testing.T) {
	rec, err := Validate(context.Background(), rawSofa()).Unwrap()
	if err != nil {
		t.Fatalf("valid asset rejected: %v", err)
	}
	if rec.Label != "Sofa" {
		t.Fatalf("record %+v", rec)
	}

	bad := rawSofa()
	bad.MetaData.Width = 0
	if _, err := Validate(context.Background(), bad).Unwrap(); !errors.Is(err, domain.ErrInvalidAsset) {
		t.Fatalf("got %v", err)
	}
}

func TestEmbedStageUsesBothTexts(t *testing.T) {
	emb := &mockEmbedder{}
	stage := NewEmbed(Deps{Embedder: emb})
	rec := ToRecord(rawSofa())

	ea, err := stage(context.Background(), rec).Unwrap()
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if len(emb.texts) != 2 {
		t.Fatalf("texts %v", emb.texts)
	}
	if emb.texts[0] != rec.Description {
		t.Fatalf("description space embedded %q", emb.texts[0])
	}
	if emb.texts[1] != CategoryString(rec) {
		t.Fatalf("category space embedded %q", emb.texts[1])
	}
	if len(ea.Description) != 1 || len(ea.Category) != 1 {
		t.Fatalf("vectors %v / %v", ea.Description, ea.Category)
	}
}

func TestEmbedStageFallsBackToCategoryString(t *testing.T) {
	emb := &mockEmbedder{}
	stage := NewEmbed(Deps{Embedder: emb})
	rec := ToRecord(rawSofa())
	rec.Description = ""

	if _, err := stage(context.Background(), rec).Unwrap(); err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	if emb.texts[0] != CategoryString(rec) {
		t.Fatalf("fallback embedded %q", emb.texts[0])
	}
}

func TestEmbedStagePropagatesFailure(t *testing.T) {
	emb := &mockEmbedder{err: errors.New("backend down")}
	stage := NewEmbed(Deps{Embedder: emb})

	if _, err := stage(context.Background(), ToRecord(rawSofa())).Unwrap(); err == nil {
		t.Fatal("expected error")
	}
}
