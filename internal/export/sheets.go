package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetClient is the subset of a spreadsheet API the sheets sink needs.
type SheetClient interface {
	EnsureSheet(ctx context.Context, title string) error
	ReplaceValues(ctx context.Context, title string, rows Table) error
}

// SheetsSink uploads the summary and detail projections, plus a dated copy of
// the detail projection that keeps the last run of each day.
type SheetsSink struct {
	Client         SheetClient
	SummarySheet   string
	DetailSheet    string
	SnapshotPrefix string
}

func (s *SheetsSink) Name() string {
	return "sheets"
}

func (s *SheetsSink) Write(ctx context.Context, doc *Document) error {
	exportedAt, err := doc.ExportedAt()
	if err != nil {
		exportedAt = time.Now().UTC()
	}

	detail := DetailTable(doc)
	uploads := []struct {
		sheet string
		rows  Table
	}{
		{s.SummarySheet, SummaryTable(doc)},
		{s.DetailSheet, detail},
		{s.SnapshotPrefix + exportedAt.Format(time.DateOnly), detail},
	}

	for _, u := range uploads {
		if err := s.Client.EnsureSheet(ctx, u.sheet); err != nil {
			return fmt.Errorf("error preparing sheet %q: %w", u.sheet, err)
		}
		if err := s.Client.ReplaceValues(ctx, u.sheet, u.rows); err != nil {
			return fmt.Errorf("error uploading sheet %q: %w", u.sheet, err)
		}
	}
	return nil
}

// GoogleSheets implements SheetClient with the Google Sheets v4 API using a
// service account credential file.
type GoogleSheets struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewGoogleSheets(ctx context.Context, credentialPath string, scopes []string, spreadsheetID string) (*GoogleSheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialPath),
		option.WithScopes(scopes...),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating sheets client: %w", err)
	}

	return &GoogleSheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (g *GoogleSheets) EnsureSheet(ctx context.Context, title string) error {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}}},
		},
	}
	_, err = g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	return err
}

func (g *GoogleSheets) ReplaceValues(ctx context.Context, title string, rows Table) error {
	rng := "'" + strings.ReplaceAll(title, "'", "''") + "'"

	if _, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, c := range row {
			cells = append(cells, c)
		}
		values = append(values, cells)
	}

	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
