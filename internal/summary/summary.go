// Package summary aggregates graded evaluations for exports.
package summary

import (
	"fmt"

	"github.com/mr1hm/rds-dashboard/internal/models"
)

// Summary totals results across all operations and per operation, and
// reduces each operation's layers to one result per data category.
type Summary struct {
	TotalsByResult                   map[models.Result]int               `json:"totals_by_result"`
	TotalsByResultByOperation        map[string]map[models.Result]int    `json:"totals_by_result_by_operation"`
	AggregatedByOperationAndCategory map[string]map[string]models.Result `json:"aggregated_layer_results_by_operation"`
}

// Summarize aggregates evaluations. Category results use the most severe
// result among the category's layers; known categories with no layers stay
// NOT_EVALUATED.
func Summarize(evals []*models.Evaluation) (Summary, error) {
	s := Summary{
		TotalsByResult:                   models.NewResultCounts(),
		TotalsByResultByOperation:        make(map[string]map[models.Result]int),
		AggregatedByOperationAndCategory: make(map[string]map[string]models.Result),
	}

	for _, e := range evals {
		category, err := e.Layer.Category()
		if err != nil {
			return Summary{}, fmt.Errorf("operation %s: %w", e.OperationID, err)
		}

		totals, ok := s.TotalsByResultByOperation[e.OperationID]
		if !ok {
			totals = models.NewResultCounts()
			s.TotalsByResultByOperation[e.OperationID] = totals
		}
		s.TotalsByResult[e.Result]++
		totals[e.Result]++

		categories, ok := s.AggregatedByOperationAndCategory[e.OperationID]
		if !ok {
			categories = newCategoryResults()
			s.AggregatedByOperationAndCategory[e.OperationID] = categories
		}
		categories[category] = MostSevere(categories[category], e.Result)
	}

	return s, nil
}

// MostSevere folds results to the most severe one. The empty fold is
// NOT_EVALUATED, and the fold is idempotent.
func MostSevere(results ...models.Result) models.Result {
	most := models.ResultNotEvaluated
	for _, r := range results {
		if r == "" {
			continue
		}
		if r.MoreSevereThan(most) {
			most = r
		}
	}
	return most
}

// Total is the number of evaluations counted in TotalsByResult.
func (s Summary) Total() int {
	total := 0
	for _, n := range s.TotalsByResult {
		total += n
	}
	return total
}

func newCategoryResults() map[string]models.Result {
	categories := make(map[string]models.Result)
	for _, c := range models.Categories() {
		categories[c] = models.ResultNotEvaluated
	}
	return categories
}
