// Command ingest loads asset catalog metadata into Qdrant. It watches a
// directory for catalog JSON files and also accepts batches over NATS, so a
// catalog export job can push directly without touching the filesystem.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/AutoSceneAI/autoscene-mvp/engine/catalog"
	"github.com/AutoSceneAI/autoscene-mvp/engine/semantic"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/fn"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/metrics"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/natsutil"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/ollama"
	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"
)

var met = metrics.New()

var (
	mAssetsTotal    = met.Counter("autoscene_ingest_assets_total", "Assets upserted into the vector store")
	mErrorsTotal    = func(stage string) *metrics.Counter { return met.Counter(metrics.WithLabels("autoscene_ingest_errors_total", "stage", stage), "Ingestion errors") }
	mFilesProcessed = met.Counter("autoscene_ingest_files_processed_total", "Catalog files processed")
	mNatsBatches    = met.Counter("autoscene_ingest_nats_batches_total", "Batches received over NATS")
	mQueueDepth     = met.Gauge("autoscene_ingest_queue_depth", "Files waiting to process")
	mLastScan       = met.Gauge("autoscene_ingest_last_scan_timestamp", "Epoch of last directory scan")
	mBatchDur       = met.Histogram("autoscene_ingest_batch_duration_seconds", "Per-batch pipeline time", nil)
)

func main() {
	var (
		dataDir    = flag.String("dir", "/var/lib/autoscene/catalog", "directory to watch for catalog JSON files")
		ollamaURL  = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		embedModel = flag.String("model", "all-minilm", "Ollama embedding model")
		qdrantAddr = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection = flag.String("collection", "autoscene", "Qdrant collection name")
		natsURL    = flag.String("nats", nats.DefaultURL, "NATS server URL")
		interval   = flag.Duration("interval", 30*time.Second, "scan interval")
		workers    = flag.Int("workers", 4, "concurrent pipeline workers")
		batchSize  = flag.Int("batch", 64, "assets per pipeline batch")
		embedRPS   = flag.Float64("embed-rps", 10, "embedding calls per second")
		stateFile  = flag.String("state", "/var/lib/autoscene/catalog/.ingest-state.json", "processed files state")
		purge      = flag.String("purge-dataset", "", "delete this dataset's points before ingesting")
		recreate   = flag.Bool("recreate", false, "drop and recreate the collection at startup")
	)
	flag.Parse()

	met.CollectRuntime("autoscene_ingest", 15*time.Second)
	met.ServeAsync(9091)

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Connect Qdrant
	vs, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		log.Error("qdrant connect failed", "error", err)
		os.Exit(1)
	}
	defer vs.Close()
	if *recreate {
		if err := vs.DeleteCollection(ctx); err != nil {
			log.Warn("collection drop failed, may not exist yet", "error", err)
		} else {
			log.Info("collection dropped", "collection", *collection)
		}
	}
	if err := vs.EnsureCollection(ctx, semantic.EmbeddingDims); err != nil {
		log.Error("qdrant ensure collection failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Qdrant", "collection", *collection, "dims", semantic.EmbeddingDims)

	if *purge != "" {
		if err := vs.DeleteByDataset(ctx, *purge); err != nil {
			log.Error("dataset purge failed", "dataset", *purge, "error", err)
			os.Exit(1)
		}
		log.Info("dataset purged, points will be re-ingested", "dataset", *purge)
	}

	deps := catalog.Deps{
		Embedder:    ollama.NewEmbedClient(*ollamaURL, *embedModel),
		VectorStore: vs,
		// Burst 2: each asset embeds two texts in one pipeline step.
		Limiter: rate.NewLimiter(rate.Limit(*embedRPS), 2),
		Logger:  log,
	}

	ingestBatch := func(ctx context.Context, batch []catalog.RawAsset, origin string) {
		start := time.Now()
		for _, chunk := range fn.Chunk(batch, *batchSize) {
			ids, errs := catalog.IngestBatch(ctx, deps, chunk, *workers)
			mAssetsTotal.Add(int64(len(ids)))
			for _, err := range errs {
				mErrorsTotal("pipeline").Inc()
				log.Warn("asset rejected", "origin", origin, "error", err)
			}
		}
		mBatchDur.Since(start)
	}

	// Connect NATS for pushed batches
	nc, err := nats.Connect(*natsURL, nats.Name("autoscene-ingest"))
	if err != nil {
		log.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	sub, err := natsutil.QueueSubscribe(nc, catalog.IngestSubject, "ingest-workers",
		func(ctx context.Context, batch []catalog.RawAsset) {
			mNatsBatches.Inc()
			log.Info("nats batch received", "assets", len(batch))
			ingestBatch(ctx, batch, "nats")
		})
	if err != nil {
		log.Error("nats subscribe failed", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	// Load state. After a purge the files must be re-processed; upserts are
	// idempotent, so re-running every file is safe.
	processed := loadState(*stateFile)
	if *purge != "" || *recreate {
		processed = make(map[string]bool)
	}

	os.MkdirAll(*dataDir, 0o755)
	log.Info("watching for catalog files", "dir", *dataDir, "interval", *interval)

	scan := func() {
		mLastScan.Set(time.Now().Unix())
		entries, err := os.ReadDir(*dataDir)
		if err != nil {
			mErrorsTotal("scan").Inc()
			log.Error("readdir failed", "error", err)
			return
		}

		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || e.Name()[0] == '.' {
				continue
			}
			info, _ := e.Info()
			key := fmt.Sprintf("%s:%d", e.Name(), info.Size())
			if processed[key] {
				continue
			}

			mQueueDepth.Inc()
			log.Info("processing file", "file", e.Name())
			count, failed := processFile(ctx, filepath.Join(*dataDir, e.Name()), ingestBatch)
			mQueueDepth.Dec()
			mFilesProcessed.Inc()
			log.Info("file done", "file", e.Name(), "ingested", count, "errors", failed)

			// Only mark fully processed on success so the next scan retries.
			if failed == 0 {
				processed[key] = true
				saveState(*stateFile, processed)
			} else {
				log.Warn("file had errors, will retry on next scan", "file", e.Name(), "errors", failed)
			}
		}
	}

	scan()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			scan()
		}
	}
}

// processFile parses one catalog file (a JSON array of raw assets) and runs
// it through the pipeline. Returns assets parsed and parse failures; pipeline
// rejections are counted in metrics by ingestBatch.
func processFile(ctx context.Context, path string, ingest func(context.Context, []catalog.RawAsset, string)) (int, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		mErrorsTotal("read").Inc()
		return 0, 1
	}
	var batch []catalog.RawAsset
	if err := json.Unmarshal(data, &batch); err != nil {
		mErrorsTotal("parse").Inc()
		return 0, 1
	}
	ingest(ctx, batch, filepath.Base(path))
	return len(batch), 0
}

func loadState(path string) map[string]bool {
	state := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return state
	}
	json.Unmarshal(data, &state)
	return state
}

func saveState(path string, state map[string]bool) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	os.WriteFile(path, data, 0o644)
}
