package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bensalemGit/rentalos-sub000/internal/api"
	"github.com/bensalemGit/rentalos-sub000/internal/blob"
	"github.com/bensalemGit/rentalos-sub000/internal/ledger"
	"github.com/bensalemGit/rentalos-sub000/internal/notify"
	"github.com/bensalemGit/rentalos-sub000/internal/pdfclient"
	"github.com/bensalemGit/rentalos-sub000/internal/roster"
	"github.com/bensalemGit/rentalos-sub000/internal/signlink"
	"github.com/bensalemGit/rentalos-sub000/internal/store"
	"github.com/bensalemGit/rentalos-sub000/internal/workflow"
	"github.com/bensalemGit/rentalos-sub000/pkg/db"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	st := store.New(pool)
	if err := st.Migrate(ctx); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	var blobs blob.Store
	if bucket := os.Getenv("BLOB_S3_BUCKET"); bucket != "" {
		blobs, err = blob.NewS3(ctx, blob.S3Options{
			Bucket:    bucket,
			Region:    os.Getenv("BLOB_S3_REGION"),
			Endpoint:  os.Getenv("BLOB_S3_ENDPOINT"),
			AccessKey: os.Getenv("BLOB_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_S3_SECRET_KEY"),
		})
		if err != nil {
			logger.Error("s3 blob store init failed", "error", err)
			os.Exit(1)
		}
	} else {
		blobs = blob.NewDir(env("BLOB_DIR", "./data/blobs"))
	}

	engine := workflow.NewEngine(workflow.Config{
		Documents: st,
		Ledger:    ledger.New(pool),
		Roster:    roster.NewResolver(st),
		Blobs:     blobs,
		PDF:       pdfclient.New(env("PDF_BASE_URL", "http://localhost:3005")),
		Notifier:  notify.NewLogNotifier(logger),
		Logger:    logger,
	})

	links := signlink.New(pool, 14*24*time.Hour)
	handler := api.NewHandler(engine, links)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	handler.Routes(r)

	addr := ":" + env("SERVICE_PORT", "8084")
	logger.Info("signature service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
