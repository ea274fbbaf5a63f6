package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/semantic"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/fn"
	"golang.org/x/time/rate"
)

// IngestSubject is the NATS subject for incoming asset metadata batches.
const IngestSubject = "catalog.ingest"

// Embedder turns texts into fixed-dimension vectors, one per input text.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Deps holds the external dependencies for the ingestion pipeline.
type Deps struct {
	Embedder    Embedder
	VectorStore *semantic.VectorStore
	// Limiter paces embedding calls; nil disables pacing.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// --- Pipeline stages ---

// Validate normalizes a raw entry and rejects records that would poison
// retrieval (missing identity, non-positive extents).
var Validate fn.Stage[RawAsset, domain.AssetRecord] = func(_ context.Context, raw RawAsset) fn.Result[domain.AssetRecord] {
	rec := ToRecord(raw)
	if err := domain.ValidateAssetRecord(rec); err != nil {
		return fn.Err[domain.AssetRecord](err)
	}
	return fn.Ok(rec)
}

// NewEmbed creates the stage that computes both vector-space embeddings in
// one batched call: the free-text description for the description space and
// the stable label+category string for the category space. An asset with no
// description falls back to the category string so the point is still
// searchable.
func NewEmbed(deps Deps) fn.Stage[domain.AssetRecord, EmbeddedAsset] {
	return func(ctx context.Context, rec domain.AssetRecord) fn.Result[EmbeddedAsset] {
		if deps.Limiter != nil {
			// Two tokens: one embedding call per vector space.
			if err := deps.Limiter.WaitN(ctx, 2); err != nil {
				return fn.Err[EmbeddedAsset](fmt.Errorf("catalog: limiter: %w", err))
			}
		}
		descText := rec.Description
		if descText == "" {
			descText = CategoryString(rec)
		}
		vecs, err := deps.Embedder.EmbedBatch(ctx, []string{descText, CategoryString(rec)})
		if err != nil {
			return fn.Err[EmbeddedAsset](fmt.Errorf("catalog: embed: %w", err))
		}
		return fn.Ok(EmbeddedAsset{Record: rec, Description: vecs[0], Category: vecs[1]})
	}
}

// NewStore creates the stage that upserts the multi-vector point.
func NewStore(vs *semantic.VectorStore) fn.Stage[EmbeddedAsset, string] {
	return func(ctx context.Context, ea EmbeddedAsset) fn.Result[string] {
		id := PointID(ea.Record)
		rec := semantic.VectorRecord{
			ID: id,
			Vectors: map[string][]float32{
				semantic.VectorDescription: ea.Description,
				semantic.VectorCategory:    ea.Category,
			},
			Payload: Payload(ea.Record),
		}
		if err := vs.Upsert(ctx, []semantic.VectorRecord{rec}); err != nil {
			return fn.Err[string](err)
		}
		return fn.Ok(id)
	}
}

// loggedTap returns a stage that logs entry/exit with duration.
func loggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(ctx context.Context, t T) fn.Result[T] {
		log.Debug("stage.enter", "stage", name)
		start := time.Now()
		defer func() {
			log.Debug("stage.exit", "stage", name, "duration", time.Since(start))
		}()
		return fn.Ok(t)
	}
}

// NewPipeline composes Validate → Embed → Store for one raw asset entry.
func NewPipeline(deps Deps) fn.Stage[RawAsset, string] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	embed := NewEmbed(deps)
	validated := fn.Then(loggedTap[RawAsset]("validate", log), fn.TracedStage("catalog.validate", Validate))
	embedded := fn.Then(validated, fn.Then(loggedTap[domain.AssetRecord]("embed", log), fn.TracedStage("catalog.embed", embed)))
	stored := fn.Then(embedded, fn.Then(loggedTap[EmbeddedAsset]("store", log), fn.TracedStage("catalog.store", NewStore(deps.VectorStore))))
	return stored
}

// IngestBatch runs the pipeline over a batch with bounded concurrency,
// returning the stored point IDs and per-entry failures. A bad record never
// aborts its siblings.
func IngestBatch(ctx context.Context, deps Deps, batch []RawAsset, workers int) (ids []string, errs []error) {
	pipeline := NewPipeline(deps)
	results := fn.ParMapResult(batch, workers, func(raw RawAsset) fn.Result[string] {
		return pipeline(ctx, raw)
	})
	for i, r := range results {
		id, err := r.Unwrap()
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog: entry %d (%s): %w", i, batch[i].ModelID, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}
