// Package export shapes evaluation results into the dashboard export document
// and writes it to sinks.
package export

import (
	"time"

	"github.com/mr1hm/rds-dashboard/internal/evaluation"
	"github.com/mr1hm/rds-dashboard/internal/models"
	"github.com/mr1hm/rds-dashboard/internal/summary"
)

// SchemaVersion is bumped whenever the document structure changes.
const SchemaVersion = 1

const datetimeLayout = "2006-01-02T15:04:05.000"

type Document struct {
	Meta Meta `json:"meta"`
	Data Data `json:"data"`
}

type Meta struct {
	AppVersion     string        `json:"app_version"`
	ExportVersion  int           `json:"export_version"`
	ExportDatetime string        `json:"export_datetime"`
	DisplayLabels  DisplayLabels `json:"display_labels"`
}

type DisplayLabels struct {
	ResultTypes                map[models.Result]string `json:"result_types"`
	LayerAggregationCategories map[string]string        `json:"layer_aggregation_categories"`
}

type Data struct {
	Operations         []OperationRecord                   `json:"operations"`
	OperationsByID     map[string]OperationRecord          `json:"operations_by_id"`
	Countries          map[string]string                   `json:"countries"`
	ResultsByOperation map[string]map[string]models.Result `json:"results_by_operation"`
	ResultsByLayer     map[string]map[string]models.Result `json:"results_by_layer"`
	ResultsByResult    map[models.Result][]ResultRef       `json:"results_by_result"`
	UngroupedResults   []ResultRecord                      `json:"ungrouped_results"`
	SummaryStatistics  summary.Summary                     `json:"summary_statistics"`
}

type OperationRecord struct {
	AffectedCountryISO3 string `json:"affected_country_iso3"`
	AffectedCountryName string `json:"affected_country_name"`
	ID                  string `json:"id"`
	Name                string `json:"name"`
}

type ResultRef struct {
	OperationID string `json:"operation_id"`
	LayerID     string `json:"layer_id"`
}

type ResultRecord struct {
	OperationID string        `json:"operation_id"`
	LayerID     string        `json:"layer_id"`
	Result      models.Result `json:"result"`
}

type BuildOptions struct {
	AppVersion string
	Now        func() time.Time
}

// Build assembles the export document. It performs no I/O; the clock comes
// from opts so output is reproducible.
//
// Only operations with evaluations in set are listed, so an operation that
// was filtered out never appears anywhere in the document.
func Build(set *evaluation.Set, sum summary.Summary, ops []*models.Operation, opts BuildOptions) *Document {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	data := Data{
		Operations:         []OperationRecord{},
		OperationsByID:     make(map[string]OperationRecord),
		Countries:          make(map[string]string),
		ResultsByOperation: make(map[string]map[string]models.Result),
		ResultsByLayer:     make(map[string]map[string]models.Result),
		ResultsByResult:    make(map[models.Result][]ResultRef),
		UngroupedResults:   make([]ResultRecord, 0, set.Len()),
		SummaryStatistics:  sum,
	}
	for _, r := range models.Results() {
		data.ResultsByResult[r] = []ResultRef{}
	}

	for _, op := range ops {
		if len(set.ForOperation(op.ID)) == 0 {
			continue
		}
		if _, seen := data.OperationsByID[op.ID]; seen {
			continue
		}
		rec := OperationRecord{
			AffectedCountryISO3: op.AffectedCountry.ISO3,
			AffectedCountryName: op.AffectedCountry.Name,
			ID:                  op.ID,
			Name:                op.Name,
		}
		data.Operations = append(data.Operations, rec)
		data.OperationsByID[op.ID] = rec
		data.Countries[op.AffectedCountry.ISO3] = op.AffectedCountry.Name
	}

	for _, e := range set.All() {
		layerID := e.Layer.ID

		if data.ResultsByOperation[e.OperationID] == nil {
			data.ResultsByOperation[e.OperationID] = make(map[string]models.Result)
		}
		data.ResultsByOperation[e.OperationID][layerID] = e.Result

		if data.ResultsByLayer[layerID] == nil {
			data.ResultsByLayer[layerID] = make(map[string]models.Result)
		}
		data.ResultsByLayer[layerID][e.OperationID] = e.Result

		data.ResultsByResult[e.Result] = append(data.ResultsByResult[e.Result], ResultRef{
			OperationID: e.OperationID,
			LayerID:     layerID,
		})
		data.UngroupedResults = append(data.UngroupedResults, ResultRecord{
			OperationID: e.OperationID,
			LayerID:     layerID,
			Result:      e.Result,
		})
	}

	return &Document{
		Meta: Meta{
			AppVersion:     opts.AppVersion,
			ExportVersion:  SchemaVersion,
			ExportDatetime: now().UTC().Format(datetimeLayout),
			DisplayLabels: DisplayLabels{
				ResultTypes:                models.ResultLabels(),
				LayerAggregationCategories: models.CategoryLabels(),
			},
		},
		Data: data,
	}
}

// ExportedAt parses the export timestamp.
func (d *Document) ExportedAt() (time.Time, error) {
	return time.Parse(datetimeLayout, d.Meta.ExportDatetime)
}

// OperationName returns the display name used for an operation's column:
// the affected country, or the id when unknown.
func (d *Document) OperationName(operationID string) string {
	if op, ok := d.Data.OperationsByID[operationID]; ok && op.AffectedCountryName != "" {
		return op.AffectedCountryName
	}
	return operationID
}
