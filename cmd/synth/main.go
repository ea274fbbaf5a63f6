// Command synth runs one synthesis pass from the command line: room
// description in, scene artifacts and a validation report out. Useful for
// catalog tuning without standing up the API server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/AutoSceneAI/autoscene-mvp/engine/scene"
	"github.com/AutoSceneAI/autoscene-mvp/engine/semantic"
	"github.com/AutoSceneAI/autoscene-mvp/engine/synth"
	"github.com/AutoSceneAI/autoscene-mvp/pkg/ollama"
)

func main() {
	var (
		outDir       = flag.String("out", "scene-out", "directory for scene artifacts")
		ollamaURL    = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		embedModel   = flag.String("embed-model", "all-minilm", "Ollama embedding model")
		genModel     = flag.String("gen-model", "qwen3:8b", "Ollama generation model")
		qdrantAddr   = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection   = flag.String("collection", "autoscene", "Qdrant collection name")
		dataset      = flag.String("dataset", "", "restrict retrieval to one dataset")
		onFloorOnly  = flag.Bool("on-floor", false, "restrict retrieval to floor-placeable assets")
		includeDescs = flag.Bool("include-descriptions", false, "add asset descriptions to the layout prompt")
		margin       = flag.Float64("margin", 5, "out-of-bounds tolerance in centimeters")
		jsonOut      = flag.Bool("json", false, "print the full result as JSON")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	description, err := readDescription(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: synth [flags] \"room description\"  (or pipe the description on stdin)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		logger.Error("qdrant connect failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	opts := synth.DefaultOptions()
	opts.Dataset = *dataset
	opts.OnFloorOnly = *onFloorOnly
	opts.IncludeDescriptions = *includeDescs
	opts.Margin = *margin

	svc := synth.New(
		ollama.NewEmbedClient(*ollamaURL, *embedModel),
		&genAdapter{client: ollama.NewGenerateClient(*ollamaURL, *genModel)},
		store,
		opts,
		logger,
	)

	result, err := svc.Synthesize(ctx, description)
	if err != nil {
		logger.Error("synthesis failed", "err", err)
		os.Exit(1)
	}

	if err := scene.Write(*outDir, result.Scene); err != nil {
		logger.Error("artifact write failed", "err", err)
		os.Exit(1)
	}

	if *jsonOut {
		json.NewEncoder(os.Stdout).Encode(result)
		return
	}

	fmt.Printf("room type:     %s\n", result.RoomType)
	fmt.Printf("objects:       %d placed", result.Report.Objects)
	if n := len(result.RetrievalMisses) + len(result.ReconciliationMisses) + len(result.PlacementErrors); n > 0 {
		fmt.Printf(" (%d dropped)", n)
	}
	fmt.Println()
	fmt.Printf("out of bounds: %d (ratio %.3f)\n", result.Report.OutOfBounds, result.Report.OOBRatio)
	fmt.Printf("overlap ratio: %.3f\n", result.Report.OverlapRatio)
	fmt.Printf("artifacts:     %s\n", *outDir)
}

func readDescription(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, err := os.Stdin.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("no description given")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("empty description")
	}
	return s, nil
}

// genAdapter adapts the Ollama chat client to synth.Generator.
type genAdapter struct {
	client *ollama.GenerateClient
}

func (g *genAdapter) Generate(ctx context.Context, req synth.GenRequest) (string, error) {
	return g.client.Generate(ctx, req.Prompt, ollama.GenOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}
