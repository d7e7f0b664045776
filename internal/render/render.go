// Package render draws export documents as terminal views.
package render

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

const title = "Rolling Data Scramble Dashboard"

const defaultWidth = 100

var ErrUnknownView = errors.New("unknown view")

var (
	resultStyles = map[models.Result]lipgloss.Style{
		models.ResultPass:             lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		models.ResultPassWithWarnings: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.ResultFail:             lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		models.ResultNotEvaluated:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Reverse(true),
		models.ResultError:            lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Reverse(true),
	}
	resultColors = map[models.Result]string{
		models.ResultPass:             "2",
		models.ResultPassWithWarnings: "3",
		models.ResultFail:             "1",
		models.ResultNotEvaluated:     "208",
		models.ResultError:            "5",
	}

	layerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	totalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	columnStyle = lipgloss.NewStyle().PaddingRight(2)
)

type viewFunc func(r *Renderer, doc *export.Document) (string, error)

var views = map[string]viewFunc{
	"panels":     (*Renderer).panels,
	"operations": (*Renderer).operations,
	"tree":       (*Renderer).tree,
	"layers":     (*Renderer).layers,
	"totals":     (*Renderer).totals,
	"bars":       (*Renderer).bars,
	"progress":   (*Renderer).progress,
}

// Views lists the available view names.
func Views() []string {
	return slices.Sorted(maps.Keys(views))
}

// Renderer draws views at a fixed width. MarkdownStyle is a glamour style
// name such as "auto", "dark" or "notty".
type Renderer struct {
	Width         int
	MarkdownStyle string
}

func New(width int, markdownStyle string) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	if markdownStyle == "" {
		markdownStyle = "auto"
	}
	return &Renderer{Width: width, MarkdownStyle: markdownStyle}
}

// Render writes the named view of doc to w.
func (r *Renderer) Render(w io.Writer, name string, doc *export.Document) error {
	view, ok := views[name]
	if !ok {
		return fmt.Errorf("%w %q (available: %s)", ErrUnknownView, name, strings.Join(Views(), ", "))
	}

	out, err := view(r, doc)
	if err != nil {
		return fmt.Errorf("error rendering %s view: %w", name, err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

func styleResult(r models.Result) string {
	style, ok := resultStyles[r]
	if !ok {
		style = resultStyles[models.ResultError]
	}
	return style.Render(string(r))
}

// grid lays blocks out left to right, wrapping when the next block would
// overflow width.
func grid(blocks []string, width int) string {
	var rows []string
	var row []string
	used := 0
	for _, b := range blocks {
		w := lipgloss.Width(b)
		if len(row) > 0 && used+w > width {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, b)
		used += w
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// operationIDs returns operations in export order, followed by any result
// keys the operations list does not name.
func operationIDs(doc *export.Document) []string {
	ids := make([]string, 0, len(doc.Data.ResultsByOperation))
	seen := make(map[string]bool, len(doc.Data.Operations))
	for _, op := range doc.Data.Operations {
		if _, ok := doc.Data.ResultsByOperation[op.ID]; ok && !seen[op.ID] {
			ids = append(ids, op.ID)
			seen[op.ID] = true
		}
	}
	for _, id := range slices.Sorted(maps.Keys(doc.Data.ResultsByOperation)) {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func layerIDs(results map[string]models.Result) []string {
	return slices.Sorted(maps.Keys(results))
}
