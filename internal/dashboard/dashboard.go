// Package dashboard runs one evaluation pass from disk to export document.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/evaluation"
	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/ingestion"
	"github.com/mr1hm/rds-dashboard/internal/models"
	"github.com/mr1hm/rds-dashboard/internal/summary"
)

type Options struct {
	AppVersion string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Generate scans the configured operations, grades every layer and builds
// the export document. Nothing is written; sinks take the result.
func Generate(ctx context.Context, cfg *config.Config, opts Options) (*export.Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap, err := ingestion.NewManager(cfg, ingestion.WithLogger(logger)).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error scanning operations: %w", err)
	}

	set := evaluation.NewSet(snap.Operations, snap.Layers)
	set.EvaluateAll()

	sum, err := summary.Summarize(set.All())
	if err != nil {
		return nil, fmt.Errorf("error summarising evaluations: %w", err)
	}

	doc := export.Build(set, sum, snap.Operations, export.BuildOptions{
		AppVersion: opts.AppVersion,
		Now:        opts.Now,
	})
	logger.Info("export built",
		"operations", len(doc.Data.Operations),
		"evaluations", set.Len(),
		"failing", sum.TotalsByResult[models.ResultFail],
	)
	return doc, nil
}
