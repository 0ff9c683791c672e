package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"datarag/config"
	"datarag/loader/service"
	"datarag/model"
	"datarag/store"

	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
}

// The loader is a batch job: an external scheduler invokes it on a fixed
// cadence with a dataset snapshot path. It is intentionally separate from
// the query-serving process so embedding generation never happens on the
// request path.
func main() {
	snapshotPath := os.Getenv("DATASET_PATH")
	if len(os.Args) > 1 {
		snapshotPath = os.Args[1]
	}
	if snapshotPath == "" {
		log.Fatal("usage: loader <snapshot.csv> (or set DATASET_PATH)")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx := context.Background()

	storer, err := store.NewPostgresStore(ctx, cfg.PostgresDSN, cfg.EmbeddingDim)
	if err != nil {
		log.Fatal("error connecting to postgres: ", err)
	}
	defer storer.Close()

	if err := storer.Init(ctx); err != nil {
		log.Fatal("error creating tables: ", err)
	}

	embedder, err := model.New(cfg)
	if err != nil {
		log.Fatal("error building embedder: ", err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := model.VerifyDimension(probeCtx, embedder); err != nil {
		cancel()
		log.Fatal("embedding dimension check failed: ", err)
	}
	cancel()

	pipeline, err := service.New(cfg, embedder, storer)
	if err != nil {
		log.Fatal("error building pipeline: ", err)
	}

	start := time.Now()
	report, err := pipeline.Run(ctx, snapshotPath)
	if err != nil {
		slog.Error("ingestion failed",
			"snapshot", snapshotPath,
			"rows", report.RowCount,
			"chunks", report.ChunkCount,
			"stored", report.StoredCount,
			"error", err,
		)
		os.Exit(1)
	}

	slog.Info("ingestion succeeded",
		"snapshot", snapshotPath,
		"rows", report.RowCount,
		"chunks", report.ChunkCount,
		"stored", report.StoredCount,
		"validation_passed", report.ValidationPassed,
		"took", time.Since(start),
	)
}
