package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/models"
	"github.com/mr1hm/rds-dashboard/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

type Handler struct {
	repo    repository.ExportRepository
	metrics http.Handler
}

func NewHandler(repo repository.ExportRepository) *Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newResultsCollector(repo))

	return &Handler{
		repo:    repo,
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(h.metrics))

	api := r.Group("/api")
	api.GET("/exports", h.listExports)
	api.GET("/exports/latest", h.latestExport)
	api.GET("/exports/:id", h.getExport)
	api.GET("/operations", h.listOperations)
	api.GET("/operations/:id/results", h.operationResults)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listExports(c *gin.Context) {
	exports, err := h.repo.ListExports(c.Request.Context(), pageFilter(c))
	if err != nil {
		slog.Error("failed to list exports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch exports"})
		return
	}
	c.JSON(http.StatusOK, exports)
}

// latestExport serves the newest document in the same encoding the JSON sink
// writes, so it can stand in for export.json.
func (h *Handler) latestExport(c *gin.Context) {
	stored, ok := h.latest(c)
	if !ok {
		return
	}
	data, err := export.Marshal(stored.Document)
	if err != nil {
		slog.Error("failed to encode export", "id", stored.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch export"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Handler) getExport(c *gin.Context) {
	stored, err := h.repo.GetExport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
		return
	}
	if err != nil {
		slog.Error("failed to fetch export", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch export"})
		return
	}
	c.JSON(http.StatusOK, stored)
}

type operationStatus struct {
	ID                  string                   `json:"id"`
	Name                string                   `json:"name"`
	AffectedCountryISO3 string                   `json:"affected_country_iso3"`
	AffectedCountryName string                   `json:"affected_country_name"`
	Totals              map[models.Result]int    `json:"totals_by_result"`
	Categories          map[string]models.Result `json:"aggregated_layer_results"`
}

// listOperations reports each operation of the newest export with its totals
// and category results.
func (h *Handler) listOperations(c *gin.Context) {
	stored, ok := h.latest(c)
	if !ok {
		return
	}

	doc := stored.Document
	stats := doc.Data.SummaryStatistics
	ops := make([]operationStatus, 0, len(doc.Data.Operations))
	for _, op := range doc.Data.Operations {
		ops = append(ops, operationStatus{
			ID:                  op.ID,
			Name:                op.Name,
			AffectedCountryISO3: op.AffectedCountryISO3,
			AffectedCountryName: op.AffectedCountryName,
			Totals:              stats.TotalsByResultByOperation[op.ID],
			Categories:          stats.AggregatedByOperationAndCategory[op.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"export_id":       stored.ID,
		"export_datetime": stored.ExportedAt,
		"operations":      ops,
	})
}

func (h *Handler) operationResults(c *gin.Context) {
	results, err := h.repo.ResultsForOperation(c.Request.Context(), c.Param("id"), pageFilter(c))
	if err != nil {
		slog.Error("failed to fetch operation results", "operation_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch results"})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results for operation"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) latest(c *gin.Context) (*repository.StoredExport, bool) {
	stored, err := h.repo.LatestExport(c.Request.Context())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no exports recorded"})
		return nil, false
	}
	if err != nil {
		slog.Error("failed to fetch latest export", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch export"})
		return nil, false
	}
	return stored, true
}

func pageFilter(c *gin.Context) repository.Filter {
	filter := repository.Filter{
		Limit: defaultPageSize,
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxPageSize {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off >= 0 {
			filter.Offset = off
		}
	}
	return filter
}
