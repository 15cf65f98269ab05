package cli

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/erazemk/popis/internal/config"
	"github.com/erazemk/popis/internal/db"
	"github.com/erazemk/popis/internal/imaging"
	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/metrics"
	"github.com/erazemk/popis/internal/notify"
	"github.com/erazemk/popis/internal/ocr"
	"github.com/erazemk/popis/internal/reconcile"
	"github.com/erazemk/popis/internal/report"
	"github.com/erazemk/popis/internal/store"
)

// app is the wired set of services every command works with.
type app struct {
	db         *sql.DB
	store      *store.Store
	notifier   notify.Notifier
	engine     *reconcile.Engine
	reports    *report.Aggregator
	recognizer ocr.Recognizer
}

func openApp(cfg *config.Config) (*app, error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	// Idempotent.
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	st := store.New(database)
	notifier := notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout)
	if _, ok := notifier.(notify.Nop); ok {
		slog.Info("mismatch webhook disabled")
	}

	return &app{
		db:         database,
		store:      st,
		notifier:   notifier,
		engine:     reconcile.New(st, notifier),
		reports:    report.New(st),
		recognizer: ocr.NewCommand(cfg.OCR.Command, cfg.OCR.Args),
	}, nil
}

// Close waits for in-flight webhook deliveries and closes the database.
func (a *app) Close() error {
	if w, ok := a.notifier.(*notify.Webhook); ok {
		w.Wait()
	}
	return a.db.Close()
}

var photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// readManifest parses a manifest file. Photos go through preprocessing and
// text recognition; other files are parsed as text in the given format, or
// the format guessed from the file name when empty.
func (a *app) readManifest(ctx context.Context, path, format string) ([]manifest.Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if format == "" && photoExtensions[strings.ToLower(filepath.Ext(path))] {
		img, err := imaging.PrepareForOCR(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		text, err := a.recognizer.Recognize(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("recognizing text: %w", err)
		}
		lines := manifest.ParseRecognized(text)
		metrics.ManifestParsed(string(manifest.FormatRecognized), len(lines), nil)
		if len(lines) == 0 {
			return nil, &manifest.InputFormatError{Err: manifest.ErrNoItemsParsed}
		}
		return lines, nil
	}

	f := manifest.FormatForFile(path)
	if format != "" {
		if f, err = manifest.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	lines, err := manifest.Parse(f, string(data))
	metrics.ManifestParsed(string(f), len(lines), err)
	return lines, err
}
