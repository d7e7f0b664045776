package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mr1hm/rds-dashboard/internal/models"
	"github.com/mr1hm/rds-dashboard/internal/repository"
)

const collectTimeout = 5 * time.Second

// resultsCollector exposes the newest stored export as gauges. It reads the
// history on every scrape, so values always match /api/exports/latest.
type resultsCollector struct {
	repo repository.ExportRepository

	evaluations          *prometheus.Desc
	operationEvaluations *prometheus.Desc
	categoryRank         *prometheus.Desc
	exportTimestamp      *prometheus.Desc
}

func newResultsCollector(repo repository.ExportRepository) *resultsCollector {
	return &resultsCollector{
		repo: repo,
		evaluations: prometheus.NewDesc(
			"rds_evaluations",
			"Evaluations in the latest export by result.",
			[]string{"result"}, nil,
		),
		operationEvaluations: prometheus.NewDesc(
			"rds_operation_evaluations",
			"Evaluations in the latest export by operation and result.",
			[]string{"operation_id", "result"}, nil,
		),
		categoryRank: prometheus.NewDesc(
			"rds_category_result_rank",
			"Most severe result rank per operation and data category (0 not evaluated .. 4 error).",
			[]string{"operation_id", "category"}, nil,
		),
		exportTimestamp: prometheus.NewDesc(
			"rds_last_export_timestamp_seconds",
			"Unix time of the latest export.",
			nil, nil,
		),
	}
}

func (c *resultsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.evaluations
	ch <- c.operationEvaluations
	ch <- c.categoryRank
	ch <- c.exportTimestamp
}

func (c *resultsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	stored, err := c.repo.LatestExport(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Warn("metrics collection failed", "error", err)
		}
		return
	}

	stats := stored.Document.Data.SummaryStatistics
	for _, r := range models.Results() {
		ch <- prometheus.MustNewConstMetric(c.evaluations, prometheus.GaugeValue, float64(stats.TotalsByResult[r]), string(r))
	}
	for opID, totals := range stats.TotalsByResultByOperation {
		for _, r := range models.Results() {
			ch <- prometheus.MustNewConstMetric(c.operationEvaluations, prometheus.GaugeValue, float64(totals[r]), opID, string(r))
		}
	}
	for opID, categories := range stats.AggregatedByOperationAndCategory {
		for category, r := range categories {
			ch <- prometheus.MustNewConstMetric(c.categoryRank, prometheus.GaugeValue, float64(r.Rank()), opID, category)
		}
	}
	if at, err := stored.Document.ExportedAt(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.exportTimestamp, prometheus.GaugeValue, float64(at.Unix()))
	}
}
