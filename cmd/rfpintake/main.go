package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/msoriano/rfp-intake/internal/common"
	"github.com/msoriano/rfp-intake/internal/extract"
	"github.com/msoriano/rfp-intake/internal/llm/openai"
	"github.com/msoriano/rfp-intake/internal/ocr"
	"github.com/msoriano/rfp-intake/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of RFP documents to process (required)")
		out     = flag.String("out", "", "output JSON file path (defaults to stdout)")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(2)
	}

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	blobs, err := readBlobs(*dir)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(blobs) == 0 {
		printError("Error: no files found in %s\n", *dir)
		os.Exit(1)
	}

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxAttempts: cfg.LLM.MaxAttempts,
		RetryDelay:  cfg.LLM.RetryDelay,
	}, logger)
	engine := ocr.NewExecEngine(cfg.OCR, logger)

	p := pipeline.New(cfg.Pipeline, client, engine, logger)

	rec, err := p.Process(context.Background(), blobs)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrEmptyExtraction):
		printError("No business content found in the supplied documents.\n")
		os.Exit(3)
	case errors.Is(err, common.ErrUnsupportedInput):
		printError("None of the supplied files contained extractable text.\n")
		os.Exit(3)
	default:
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	enc, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		printError("Error: encode record: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		fmt.Println(string(enc))
		return
	}
	if err := os.WriteFile(*out, append(enc, '\n'), 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
	logger.Info("record written", "path", *out, "line_items", len(rec.LineItems), "needs_review", rec.NeedsReview)
}

// readBlobs loads the directory's top-level files in name order. Order
// matters downstream: the extractor prefers later sources on conflict.
func readBlobs(dir string) ([]extract.InputBlob, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var blobs []extract.InputBlob
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		blobs = append(blobs, extract.InputBlob{Filename: name, Data: data})
	}
	return blobs, nil
}
