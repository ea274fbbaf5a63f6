// Package main implements the AutoScene API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/AutoSceneAI/autoscene-mvp/engine/domain"
	"github.com/AutoSceneAI/autoscene-mvp/engine/registry"
	"github.com/AutoSceneAI/autoscene-mvp/engine/semantic"
	"github.com/AutoSceneAI/autoscene-mvp/engine/synth"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/fn"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/metrics"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/mid"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/natsutil"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/ollama"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/resilience"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// SceneCreatedSubject carries one event per successfully synthesized scene.
const SceneCreatedSubject = "scene.created"

var met = metrics.New()

var (
	mScenesTotal  = met.Counter("autoscene_api_scenes_total", "Scenes synthesized")
	mErrorsTotal  = func(kind string) *metrics.Counter { return met.Counter(metrics.WithLabels("autoscene_api_errors_total", "kind", kind), "Synthesis errors") }
	mThrottled    = met.Counter("autoscene_api_throttled_total", "Requests rejected by the rate limiter")
	mSynthDur     = met.Histogram("autoscene_api_synth_duration_seconds", "End-to-end synthesis time", nil)
	mOOBRatio     = met.Histogram("autoscene_api_oob_ratio", "Out-of-bounds ratio per scene", []float64{0, 0.1, 0.25, 0.5, 0.75, 1})
	mOverlapRatio = met.Histogram("autoscene_api_overlap_ratio", "Overlap ratio per scene", []float64{0, 0.05, 0.1, 0.25, 0.5, 1})
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	MetricsPort string
	OllamaURL   string
	EmbedModel  string
	GenModel    string
	QdrantURL   string
	Collection  string
	NatsURL     string
	Neo4jURL    string
	Neo4jUser   string
	Neo4jPass   string
	CORSOrigin  string
	Dataset     string
	ReqPerSec   float64
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		MetricsPort: envOr("METRICS_PORT", "9090"),
		OllamaURL:   envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:  envOr("EMBED_MODEL", "all-minilm"),
		GenModel:    envOr("GEN_MODEL", "qwen3:8b"),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		Collection:  envOr("QDRANT_COLLECTION", "autoscene"),
		NatsURL:     envOr("NATS_URL", nats.DefaultURL),
		Neo4jURL:    envOr("NEO4J_URL", "neo4j://localhost:7687"),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
		Dataset:     envOr("DATASET", ""),
		ReqPerSec:   1,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to Qdrant ---
	vectorStore, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer vectorStore.Close()

	// --- Connect to Neo4j ---
	neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
	if err != nil {
		return fmt.Errorf("neo4j driver: %w", err)
	}
	defer neo4jDriver.Close(ctx)
	lineage := registry.New(neo4jDriver)

	// --- Connect to NATS ---
	nc, err := nats.Connect(cfg.NatsURL, nats.Name("autoscene-api"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	// --- Model backends ---
	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	breaker := resilience.NewBreaker(resilience.DefaultBreakerOpts)
	generator := &guardedGenerator{
		client:  ollama.NewGenerateClient(cfg.OllamaURL, cfg.GenModel),
		breaker: breaker,
		// Each synthesis makes two generation calls; burst 2 lets one
		// request through unpaced.
		pace: resilience.NewLimiter(resilience.LimiterOpts{Rate: 1, Burst: 2}),
	}

	opts := synth.DefaultOptions()
	opts.Dataset = cfg.Dataset
	svc := synth.New(embedder, generator, vectorStore, opts, logger)

	// --- Metrics ---
	met.CollectRuntime("autoscene_api", 15*time.Second)
	if p, err := strconv.Atoi(cfg.MetricsPort); err == nil {
		met.ServeAsync(p)
	}

	// --- Build HTTP server ---
	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.ReqPerSec, Burst: 4})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("POST /api/synthesize", throttle(limiter, handleSynthesize(svc, lineage, nc, logger)))
	mux.HandleFunc("GET /api/scenes/{id}/placements", handlePlacements(lineage, logger))
	mux.HandleFunc("GET /api/assets/scenes", handleScenesUsingAsset(lineage, logger))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("autoscene-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute, // synthesis holds the connection open
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// SynthesizeRequest is the JSON body for POST /api/synthesize.
type SynthesizeRequest struct {
	Description string `json:"description"`
}

// SynthesizeResponse is the JSON response for POST /api/synthesize.
type SynthesizeResponse struct {
	SceneID string `json:"scene_id"`
	*synth.Result
}

// SceneEvent is published to NATS after each successful synthesis.
type SceneEvent struct {
	SceneID      string    `json:"scene_id"`
	RoomType     string    `json:"room_type"`
	Objects      int       `json:"objects"`
	OOBRatio     float64   `json:"oob_ratio"`
	OverlapRatio float64   `json:"overlap_ratio"`
	CreatedAt    time.Time `json:"created_at"`
}

func handleSynthesize(svc *synth.Service, lineage *registry.Store, nc *nats.Conn, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SynthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		start := time.Now()
		result, err := svc.Synthesize(r.Context(), req.Description)
		mSynthDur.Since(start)
		if err != nil {
			writeSynthError(w, err, logger)
			return
		}

		sceneID := uuid.NewString()
		mScenesTotal.Inc()
		mOOBRatio.Observe(result.Report.OOBRatio)
		mOverlapRatio.Observe(result.Report.OverlapRatio)

		rec := registry.SceneRecord{
			ID:          sceneID,
			RoomType:    result.RoomType,
			Description: req.Description,
			CreatedAt:   start,
		}
		if err := lineage.SaveScene(r.Context(), rec, registry.PlacementsOf(result.Scene)); err != nil {
			// Lineage is advisory; the scene itself is already built.
			logger.Error("lineage save failed", "scene_id", sceneID, "err", err)
		}

		event := SceneEvent{
			SceneID:      sceneID,
			RoomType:     result.RoomType,
			Objects:      result.Report.Objects,
			OOBRatio:     result.Report.OOBRatio,
			OverlapRatio: result.Report.OverlapRatio,
			CreatedAt:    start,
		}
		if err := natsutil.Publish(r.Context(), nc, SceneCreatedSubject, event); err != nil {
			logger.Error("scene event publish failed", "scene_id", sceneID, "err", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SynthesizeResponse{SceneID: sceneID, Result: result})
	}
}

func writeSynthError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, domain.ErrDescriptionTooShort),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrDescriptionUnsafe):
		mErrorsTotal("validation").Inc()
		http.Error(w, `{"error":"invalid description"}`, http.StatusBadRequest)
	case errors.Is(err, domain.ErrMalformedResponse):
		mErrorsTotal("malformed").Inc()
		logger.Error("generation returned malformed output", "err", err)
		http.Error(w, `{"error":"generation backend returned malformed output"}`, http.StatusBadGateway)
	case errors.Is(err, resilience.ErrCircuitOpen):
		mErrorsTotal("circuit_open").Inc()
		http.Error(w, `{"error":"generation backend unavailable"}`, http.StatusServiceUnavailable)
	default:
		mErrorsTotal("internal").Inc()
		logger.Error("synthesis failed", "err", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

func handlePlacements(lineage *registry.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		placements, err := lineage.PlacementsInScene(r.Context(), r.PathValue("id"))
		if err != nil {
			logger.Error("placement lookup failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(placements)
	}
}

// handleScenesUsingAsset lists every scene that placed a given asset, keyed
// by asset path. Curation tooling uses this before retiring an asset.
func handleScenesUsingAsset(lineage *registry.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			http.Error(w, `{"error":"missing path parameter"}`, http.StatusBadRequest)
			return
		}
		scenes, err := lineage.ScenesUsingAsset(r.Context(), path)
		if err != nil {
			logger.Error("asset lineage lookup failed", "err", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(scenes)
	}
}

// throttle rejects requests with 429 once the token bucket is drained.
// Synthesis calls are expensive; backpressure beats queueing here.
func throttle(l *resilience.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			mThrottled.Inc()
			http.Error(w, `{"error":"too many requests"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Adapters ---

// guardedGenerator adapts the Ollama chat client to synth.Generator behind a
// circuit breaker, so a dead backend fails fast instead of queueing requests.
// Calls are paced so concurrent syntheses do not pile onto the backend.
type guardedGenerator struct {
	client  *ollama.GenerateClient
	breaker *resilience.Breaker
	pace    *resilience.Limiter
}

func (g *guardedGenerator) Generate(ctx context.Context, req synth.GenRequest) (string, error) {
	if err := g.pace.Wait(ctx); err != nil {
		return "", err
	}
	result := resilience.CallResult(g.breaker, ctx, func(ctx context.Context) fn.Result[string] {
		return fn.FromPair(g.client.Generate(ctx, req.Prompt, ollama.GenOptions{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}))
	})
	return result.Unwrap()
}
