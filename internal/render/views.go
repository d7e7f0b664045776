package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

// panels draws one bordered panel per evaluation.
func (r *Renderer) panels(doc *export.Document) (string, error) {
	blocks := make([]string, 0, len(doc.Data.UngroupedResults))
	for _, res := range doc.Data.UngroupedResults {
		body := lipgloss.JoinVertical(lipgloss.Left,
			boldStyle.Render(res.OperationID),
			layerStyle.Render(res.LayerID),
			styleResult(res.Result),
		)
		blocks = append(blocks, panelStyle.Render(body))
	}
	return grid(blocks, r.Width), nil
}

// operations draws a markdown heading per operation followed by its layers
// in columns.
func (r *Renderer) operations(doc *export.Document) (string, error) {
	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.MarkdownStyle),
		glamour.WithWordWrap(r.Width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating markdown renderer: %w", err)
	}

	var sb strings.Builder
	for _, id := range operationIDs(doc) {
		op := doc.Data.OperationsByID[id]
		heading, err := md.Render(fmt.Sprintf("# %s - %s [%s - %s]\n", op.Name, op.AffectedCountryName, id, op.AffectedCountryISO3))
		if err != nil {
			return "", fmt.Errorf("error rendering heading for %s: %w", id, err)
		}
		sb.WriteString(heading)

		results := doc.Data.ResultsByOperation[id]
		cells := make([]string, 0, len(results))
		for _, layerID := range layerIDs(results) {
			cells = append(cells, columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, layerID, styleResult(results[layerID]))))
		}
		sb.WriteString(grid(cells, r.Width))
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func (r *Renderer) tree(doc *export.Document) (string, error) {
	root := tree.Root(title)
	for _, id := range operationIDs(doc) {
		opNode := tree.Root(id)
		results := doc.Data.ResultsByOperation[id]
		for _, layerID := range layerIDs(results) {
			opNode.Child(tree.Root(layerID).Child(styleResult(results[layerID])))
		}
		root.Child(opNode)
	}
	return root.String(), nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return boldStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func titled(t fmt.Stringer) string {
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.String())
}

// layers lists every evaluation with its country.
func (r *Renderer) layers(doc *export.Document) (string, error) {
	t := newTable("Affected Country", "Layer", "Result")
	for _, id := range operationIDs(doc) {
		results := doc.Data.ResultsByOperation[id]
		for _, layerID := range layerIDs(results) {
			t.Row(doc.OperationName(id), layerID, styleResult(results[layerID]))
		}
	}
	return titled(t), nil
}

var totalsColumns = []struct {
	header string
	result models.Result
}{
	{"Passing Layers", models.ResultPass},
	{"Passing (with warnings) Layers", models.ResultPassWithWarnings},
	{"Failing Layers", models.ResultFail},
	{"Unevaluated Layers", models.ResultNotEvaluated},
	{"Errors", models.ResultError},
}

// totals counts each operation's layers per result.
func (r *Renderer) totals(doc *export.Document) (string, error) {
	headers := []string{"Affected Country"}
	for _, c := range totalsColumns {
		headers = append(headers, c.header)
	}
	t := newTable(append(headers, "Total")...)

	for _, id := range operationIDs(doc) {
		results := doc.Data.ResultsByOperation[id]
		counts := models.NewResultCounts()
		for _, res := range results {
			counts[res]++
		}

		row := []string{doc.OperationName(id)}
		for _, c := range totalsColumns {
			row = append(row, resultStyles[c.result].Render(strconv.Itoa(counts[c.result])))
		}
		t.Row(append(row, totalStyle.Render(strconv.Itoa(len(results))))...)
	}
	return titled(t), nil
}

// bars draws one coloured mark per layer so operations compare at a glance.
func (r *Renderer) bars(doc *export.Document) (string, error) {
	t := table.New().
		Border(lipgloss.BlockBorder()).
		BorderColumn(false).
		Headers("Affected Country", "Layers", "")

	for _, id := range operationIDs(doc) {
		results := doc.Data.ResultsByOperation[id]
		var strip strings.Builder
		for _, layerID := range layerIDs(results) {
			style, ok := resultStyles[results[layerID]]
			if !ok {
				style = resultStyles[models.ResultError]
			}
			strip.WriteString(style.Render("="))
		}
		t.Row(doc.OperationName(id), strip.String(), totalStyle.Render(strconv.Itoa(len(results))))
	}
	return titled(t), nil
}

// progress draws one bar per result showing its share of all evaluations.
func (r *Renderer) progress(doc *export.Document) (string, error) {
	totals := doc.Data.SummaryStatistics.TotalsByResult
	total := doc.Data.SummaryStatistics.Total()

	barWidth := r.Width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	lines := make([]string, 0, len(totals))
	for _, res := range models.Results() {
		bar := progress.New(
			progress.WithSolidFill(resultColors[res]),
			progress.WithWidth(barWidth),
		)
		share := 0.0
		if total > 0 {
			share = float64(totals[res]) / float64(total)
		}
		label := resultStyles[res].Render(fmt.Sprintf("%20s", res))
		lines = append(lines, label+" "+bar.ViewAs(share))
	}
	return strings.Join(lines, "\n"), nil
}
