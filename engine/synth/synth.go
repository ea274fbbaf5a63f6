// Package synth orchestrates the layout synthesis pipeline. It accepts a
// room description, decomposes it into a room type and object list, retrieves
// matching assets by embedding similarity, asks the generation backend for a
// spatial layout, reconciles and assembles the scene, and scores it
// geometrically.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/layout"
	"github.com/AutoSceneAI/autoscene-mvp/engine/prompt"
	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
	"github.com/AutoSceneAI/autoscene-mvp/engine/semantic"
	"github.com/AutoSceneAI/autoscene-mvp/engine/spatial"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/fn"
)

// Embedder abstracts the external text-embedding collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenRequest is one call to the generation backend.
type GenRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Generator abstracts the external text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, req GenRequest) (string, error)
}

// SemanticSearcher abstracts description-space similarity search.
type SemanticSearcher interface {
	SearchDescription(ctx context.Context, embedding []float32, topK int, filters map[string]any) ([]semantic.SearchResult, error)
}

// Options configures pipeline behaviour.
type Options struct {
	// TopK is the retrieval limit per object slot; the top hit is taken as
	// authoritative.
	TopK int
	// RetrievalWorkers bounds concurrent per-object retrieval calls.
	RetrievalWorkers int
	// Dataset, when set, restricts retrieval to one source library.
	Dataset string
	// OnFloorOnly restricts retrieval to floor-placeable assets.
	OnFloorOnly bool
	// IncludeDescriptions adds asset descriptions to the layout prompt.
	IncludeDescriptions bool
	// DecomposeMaxTokens / LayoutMaxTokens cap the two generation calls.
	// Layout generation always runs at temperature 0.
	DecomposeMaxTokens int
	LayoutMaxTokens    int
	// ExternalTimeout bounds each embedding and generation call. A timeout
	// fails that one attempt, not the session.
	ExternalTimeout time.Duration
	// Margin is the out-of-bounds tolerance in centimeters.
	Margin float64
	// Retry governs transport-level retries of generation calls. Parse
	// failures are never retried here: they propagate with the raw text.
	Retry fn.RetryOpts
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:               1,
		RetrievalWorkers:   4,
		DecomposeMaxTokens: 32768,
		LayoutMaxTokens:    4096,
		ExternalTimeout:    120 * time.Second,
		Margin:             spatial.DefaultMargin,
		Retry:              fn.RetryOpts{MaxAttempts: 2, InitialWait: time.Second, MaxWait: 10 * time.Second, Jitter: true},
	}
}

// Service is the synthesis orchestration service.
type Service struct {
	embed  Embedder
	gen    Generator
	search SemanticSearcher
	opts   Options
	logger *slog.Logger
}

// New creates a synthesis Service.
func New(embed Embedder, gen Generator, search SemanticSearcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK < 1 {
		opts.TopK = 1
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	return &Service{embed: embed, gen: gen, search: search, opts: opts, logger: logger}
}

// RetrievalMiss records one object slot retrieval could not fill.
// Recoverable: the slot is skipped downstream.
type RetrievalMiss struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// Result is the full synthesis outcome, including every recovery the
// pipeline made along the way. Misses are reported, never silently ignored.
type Result struct {
	RoomType             string                 `json:"room_type"`
	Scene                *scene.Scene           `json:"scene"`
	Report               spatial.Report         `json:"report"`
	RetrievalMisses      []RetrievalMiss        `json:"retrieval_misses,omitempty"`
	ReconciliationMisses []layout.Miss          `json:"reconciliation_misses,omitempty"`
	PlacementErrors      []scene.PlacementError `json:"placement_errors,omitempty"`
}

// Synthesize runs the full pipeline for one room description.
func (s *Service) Synthesize(ctx context.Context, description string) (*Result, error) {
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}
	s.logger.Info("synth start", "description_len", len(description))

	plan, err := s.DecomposeRoom(ctx, description)
	if err != nil {
		return nil, err
	}
	s.logger.Info("synth decomposed", "room_type", plan.RoomType, "objects", len(plan.Objects))

	spec, retrievalMisses := s.RetrieveObjects(ctx, plan)
	s.logger.Info("synth retrieved", "labels", len(spec.Labels), "misses", len(retrievalMisses))

	gen, err := s.GenerateLayout(ctx, spec)
	if err != nil {
		return nil, err
	}

	reconciled := layout.Reconcile(gen, spec.Retrieved, s.logger)
	s.logger.Info("synth reconciled", "placed", reconciled.Placed(), "misses", len(reconciled.Misses))

	assembled, placementErrs, err := scene.Assemble(reconciled, gen.Floor)
	if err != nil {
		return nil, fmt.Errorf("synth: assemble: %w", err)
	}

	report, err := spatial.Validate(assembled, s.opts.Margin)
	if err != nil {
		return nil, fmt.Errorf("synth: validate: %w", err)
	}
	s.logger.Info("synth validated",
		"objects", report.Objects, "oob_ratio", report.OOBRatio, "overlap_ratio", report.OverlapRatio)

	return &Result{
		RoomType:             plan.RoomType,
		Scene:                assembled,
		Report:               report,
		RetrievalMisses:      retrievalMisses,
		ReconciliationMisses: reconciled.Misses,
		PlacementErrors:      placementErrs,
	}, nil
}

// DecomposeRoom asks the generation backend to split a free-form description
// into a room type and object manifest.
func (s *Service) DecomposeRoom(ctx context.Context, description string) (domain.RoomPlan, error) {
	raw, err := s.generate(ctx, GenRequest{
		Prompt:    prompt.BuildRoomPrompt(description),
		MaxTokens: s.opts.DecomposeMaxTokens,
	})
	if err != nil {
		return domain.RoomPlan{}, fmt.Errorf("synth: decompose: %w", err)
	}
	return prompt.ParseRoomPlan(raw)
}

// RetrieveObjects fills the room spec by embedding each requested object's
// description and querying the description vector space. Retrieval calls for
// distinct objects share no mutable state, so they run with bounded
// parallelism. A slot with no candidate (or a failed external call) becomes
// a reported miss, never an abort.
func (s *Service) RetrieveObjects(ctx context.Context, plan domain.RoomPlan) (domain.RoomSpec, []RetrievalMiss) {
	spec := domain.RoomSpec{
		RoomType:  plan.RoomType,
		Prompted:  make(map[string][]domain.ObjectPrompt),
		Retrieved: make(map[string][]domain.AssetRecord),
	}

	filters := map[string]any{}
	if s.opts.Dataset != "" {
		filters["dataset"] = s.opts.Dataset
	}
	if s.opts.OnFloorOnly {
		filters["onFloor"] = true
	}

	type slot struct {
		asset domain.AssetRecord
		miss  *RetrievalMiss
	}
	slots := fn.ParMap(plan.Objects, s.opts.RetrievalWorkers, func(req domain.ObjectRequest) slot {
		asset, err := s.retrieveOne(ctx, req.Description, filters)
		if err != nil {
			return slot{miss: &RetrievalMiss{Name: req.Name, Description: req.Description, Reason: err.Error()}}
		}
		return slot{asset: asset}
	})

	var misses []RetrievalMiss
	for _, sl := range slots {
		if sl.miss != nil {
			s.logger.Warn("synth: retrieval miss", "object", sl.miss.Name, "reason", sl.miss.Reason)
			misses = append(misses, *sl.miss)
			continue
		}
		label := domain.NormalizeLabel(sl.asset.Category)
		if _, seen := spec.Retrieved[label]; !seen {
			spec.Labels = append(spec.Labels, label)
		}
		p := domain.ObjectPrompt{BBox: sl.asset.BBox()}
		if s.opts.IncludeDescriptions {
			p.Description = sl.asset.Description
		}
		spec.Prompted[label] = append(spec.Prompted[label], p)
		spec.Retrieved[label] = append(spec.Retrieved[label], sl.asset)
	}
	return spec, misses
}

// retrieveOne embeds one description and takes the top similarity hit.
func (s *Service) retrieveOne(ctx context.Context, description string, filters map[string]any) (domain.AssetRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.ExternalTimeout)
	defer cancel()

	embedding, err := s.embed.Embed(callCtx, description)
	if err != nil {
		return domain.AssetRecord{}, fmt.Errorf("embed: %w", err)
	}
	hits, err := s.search.SearchDescription(callCtx, embedding, s.opts.TopK, filters)
	if err != nil {
		return domain.AssetRecord{}, fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		return domain.AssetRecord{}, domain.ErrNoCandidate
	}
	return hits[0].Asset, nil
}

// GenerateLayout asks the generation backend to place the retrieved objects,
// deterministically (temperature 0).
func (s *Service) GenerateLayout(ctx context.Context, spec domain.RoomSpec) (domain.LayoutResult, error) {
	raw, err := s.generate(ctx, GenRequest{
		Prompt:      prompt.BuildLayoutPrompt(spec.RoomType, spec.Labels, spec.Prompted),
		Temperature: 0,
		MaxTokens:   s.opts.LayoutMaxTokens,
	})
	if err != nil {
		return domain.LayoutResult{}, fmt.Errorf("synth: layout: %w", err)
	}
	return prompt.ParseLayout(raw)
}

// generate runs one generation call with a per-attempt timeout and
// transport-level retry.
func (s *Service) generate(ctx context.Context, req GenRequest) (string, error) {
	result := fn.Retry(ctx, s.opts.Retry, func(ctx context.Context) fn.Result[string] {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.ExternalTimeout)
		defer cancel()
		return fn.FromPair(s.gen.Generate(callCtx, req))
	})
	return result.Unwrap()
}
