package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

var ErrNotFound = errors.New("not found")

type Filter struct {
	Limit  int
	Offset int
}

// ExportSummary describes a stored export without its document.
type ExportSummary struct {
	ID            string    `json:"id"`
	AppVersion    string    `json:"app_version"`
	ExportVersion int       `json:"export_version"`
	ExportedAt    string    `json:"export_datetime"`
	Evaluations   int       `json:"evaluations"`
	CreatedAt     time.Time `json:"created_at"`
}

type StoredExport struct {
	ExportSummary
	Document *export.Document `json:"document"`
}

// StoredResult is one evaluation result recorded with a stored export.
type StoredResult struct {
	ExportID    string        `json:"export_id"`
	ExportedAt  string        `json:"export_datetime"`
	OperationID string        `json:"operation_id"`
	LayerID     string        `json:"layer_id"`
	Result      models.Result `json:"result"`
}

// ExportRepository keeps finished export documents. Nothing stored here is
// read back into an evaluation run.
type ExportRepository interface {
	SaveExport(ctx context.Context, doc *export.Document) (string, error)
	GetExport(ctx context.Context, id string) (*StoredExport, error)
	LatestExport(ctx context.Context) (*StoredExport, error)
	ListExports(ctx context.Context, opts Filter) ([]ExportSummary, error)
	ResultsForOperation(ctx context.Context, operationID string, opts Filter) ([]StoredResult, error)
}
