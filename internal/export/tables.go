package export

import (
	"sort"

	"github.com/mr1hm/rds-dashboard/internal/models"
)

// Table is a grid of cells; the first row holds column headers and the first
// column holds row labels.
type Table [][]string

// SummaryTable projects category results: one row per category, one column
// per operation (titled by affected country), result labels in cells.
func SummaryTable(doc *Document) Table {
	aggregated := doc.Data.SummaryStatistics.AggregatedByOperationAndCategory
	columns := doc.columnOperations(func(id string) bool {
		_, ok := aggregated[id]
		return ok
	})

	categoryLabels := doc.Meta.DisplayLabels.LayerAggregationCategories
	categories := sortedKeys(categoryLabels)
	extra := map[string]struct{}{}
	for _, id := range columns {
		for c := range aggregated[id] {
			if _, known := categoryLabels[c]; !known {
				extra[c] = struct{}{}
			}
		}
	}
	categories = append(categories, sortedKeys(extra)...)

	table := Table{doc.header(columns)}
	for _, c := range categories {
		label := c
		if l, ok := categoryLabels[c]; ok {
			label = l
		}
		row := []string{label}
		for _, id := range columns {
			row = append(row, doc.resultLabel(aggregated[id], c))
		}
		table = append(table, row)
	}
	return table
}

// DetailTable projects layer results: one row per layer id (sorted), one
// column per operation. Layers an operation does not have are left blank.
func DetailTable(doc *Document) Table {
	byOperation := doc.Data.ResultsByOperation
	columns := doc.columnOperations(func(id string) bool {
		_, ok := byOperation[id]
		return ok
	})

	table := Table{doc.header(columns)}
	for _, layerID := range sortedKeys(doc.Data.ResultsByLayer) {
		row := []string{layerID}
		for _, id := range columns {
			row = append(row, doc.resultLabel(byOperation[id], layerID))
		}
		table = append(table, row)
	}
	return table
}

func (d *Document) columnOperations(include func(string) bool) []string {
	var ids []string
	for _, op := range d.Data.Operations {
		if include(op.ID) {
			ids = append(ids, op.ID)
		}
	}
	return ids
}

// header titles columns by country, falling back to "country (id)" when two
// operations share a country.
func (d *Document) header(operationIDs []string) []string {
	seen := map[string]int{}
	for _, id := range operationIDs {
		seen[d.OperationName(id)]++
	}

	header := []string{""}
	for _, id := range operationIDs {
		name := d.OperationName(id)
		if seen[name] > 1 {
			name = name + " (" + id + ")"
		}
		header = append(header, name)
	}
	return header
}

func (d *Document) resultLabel(results map[string]models.Result, key string) string {
	r, ok := results[key]
	if !ok {
		return ""
	}
	if label, ok := d.Meta.DisplayLabels.ResultTypes[r]; ok {
		return label
	}
	return r.Label()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
