package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/rds-dashboard/internal/cmf/cmftest"
	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/export"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedClock() time.Time {
	return time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testConfig(base string, paths ...string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			BasePath:           base,
			OperationsPath:     "Shared drives",
			OperationPaths:     paths,
			AllLayersProductID: cmftest.AllLayersProductID,
		},
		Worker: config.WorkerConfig{Count: 2, BufferSize: 4},
	}
}

func folder(t *testing.T, base, name, id, iso3 string) *cmftest.Folder {
	return cmftest.NewFolder(t, filepath.Join(base, "Shared drives", "prepared-country-data"), name, id, iso3)
}

// seed builds three operations: one with a generated product, one relying on
// layer definitions and one whose event description has no id.
func seed(t *testing.T) string {
	base := t.TempDir()

	bgd := folder(t, base, "bangladesh", "2021-bgd-001", "BGD")
	bgd.WriteLayerDefinitions("bgd-admn-ad0-py-s0-reference")
	bgd.WriteAllLayers("MA9999_v1.json", 1,
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference", ErrorMessages: []string{cmftest.MessageNoDataset}},
	)
	bgd.WriteAllLayers("MA9999_v2.json", 2,
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference"},
		cmftest.Layer{Name: "bgd-admn-ad1-py-s0-reference", ErrorMessages: []string{cmftest.MessageNoDataset}},
		cmftest.Layer{Name: "bgd-elev-dem-ras-s0-srtm", ErrorMessages: []string{cmftest.MessageSchemaInvalid}},
		cmftest.Layer{Name: "bgd-tran-rds-ln-s0-osm-pp-roads", ErrorMessages: []string{cmftest.MessageNoDataset, cmftest.MessageSchemaInvalid}},
		cmftest.Layer{Name: "bgd-stle-stl-pt-s0-osm", ErrorMessages: []string{cmftest.MessageMultipleFound}},
	)

	moz := folder(t, base, "mozambique", "2021-moz-001", "MOZ")
	moz.WriteLayerDefinitions("moz-admn-ad0-py-s0-reference", "moz-phys-riv-ln-s0-osm")

	folder(t, base, "haiti", "", "HTI")

	return base
}

func generate(t *testing.T, cfg *config.Config) (*export.Document, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	doc, err := Generate(context.Background(), cfg, Options{
		AppVersion: "test",
		Logger:     slog.New(slog.NewJSONHandler(&logs, nil)),
		Now:        fixedClock,
	})
	require.NoError(t, err)
	return doc, &logs
}

func TestGenerate(t *testing.T) {
	base := seed(t)
	doc, _ := generate(t, testConfig(base,
		"prepared-country-data/bangladesh",
		"prepared-country-data/mozambique",
		"prepared-country-data/haiti",
	))

	assert.Equal(t, "2021-06-01T12:00:00.000", doc.Meta.ExportDatetime)
	require.Len(t, doc.Data.Operations, 2)
	assert.Equal(t, "2021-bgd-001", doc.Data.Operations[0].ID)
	assert.Equal(t, "Bangladesh", doc.Data.Operations[0].AffectedCountryName)
	assert.Equal(t, "2021-moz-001", doc.Data.Operations[1].ID)

	bgd := doc.Data.ResultsByOperation["2021-bgd-001"]
	assert.Equal(t, map[string]models.Result{
		"bgd-admn-ad0-py-s0-reference":    models.ResultPass,
		"bgd-admn-ad1-py-s0-reference":    models.ResultFail,
		"bgd-elev-dem-ras-s0-srtm":        models.ResultPassWithWarnings,
		"bgd-tran-rds-ln-s0-osm-pp-roads": models.ResultFail,
		"bgd-stle-stl-pt-s0-osm":          models.ResultPassWithWarnings,
	}, bgd)

	categories := doc.Data.SummaryStatistics.AggregatedByOperationAndCategory["2021-bgd-001"]
	assert.Equal(t, models.ResultFail, categories["admn"])
	assert.Equal(t, models.ResultPassWithWarnings, categories["elev"])
	assert.Equal(t, models.ResultNotEvaluated, categories["carto"])

	for layer, result := range doc.Data.ResultsByOperation["2021-moz-001"] {
		assert.Equal(t, models.ResultFail, result, layer)
	}
	assert.Equal(t, models.ResultFail, doc.Data.SummaryStatistics.AggregatedByOperationAndCategory["2021-moz-001"]["phys"])
}

func TestGenerate_TotalsSurviveJSON(t *testing.T) {
	base := seed(t)
	doc, _ := generate(t, testConfig(base, "prepared-country-data/*"))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, (&export.FileSink{Path: path}).Write(context.Background(), doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed struct {
		Data struct {
			UngroupedResults  []json.RawMessage `json:"ungrouped_results"`
			SummaryStatistics struct {
				TotalsByResult map[string]int `json:"totals_by_result"`
			} `json:"summary_statistics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &parsed))

	total := 0
	for _, n := range parsed.Data.SummaryStatistics.TotalsByResult {
		total += n
	}
	assert.Equal(t, 7, total)
	assert.Len(t, parsed.Data.UngroupedResults, total)
}

func TestGenerate_Repeatable(t *testing.T) {
	base := seed(t)
	cfg := testConfig(base, "prepared-country-data/*")

	first, _ := generate(t, cfg)
	second, _ := generate(t, cfg)

	a, err := export.Marshal(first)
	require.NoError(t, err)
	b, err := export.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGenerate_UnknownMessageAbortsBeforeExport(t *testing.T) {
	base := seed(t)
	bad := folder(t, base, "nepal", "2021-npl-001", "NPL")
	bad.WriteAllLayers("MA9999_v1.json", 1,
		cmftest.Layer{Name: "npl-admn-ad0-py-s0-reference", ErrorMessages: []string{"Some new error"}},
	)

	doc, err := Generate(context.Background(), testConfig(base, "prepared-country-data/*"), Options{
		Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, models.ErrUnknownErrorKind))
}

func TestGenerate_MalformedLayerIDFails(t *testing.T) {
	base := t.TempDir()
	f := folder(t, base, "sri-lanka", "2021-lka-001", "LKA")
	f.WriteAllLayers("MA9999_v1.json", 1, cmftest.Layer{Name: "roads"})

	_, err := Generate(context.Background(), testConfig(base, "prepared-country-data/sri-lanka"), Options{
		Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrLayerIDMalformed))
}

func TestGenerate_DuplicateLayerIDFails(t *testing.T) {
	base := t.TempDir()
	f := folder(t, base, "bangladesh", "2021-bgd-001", "BGD")
	f.WriteAllLayers("MA9999_v1.json", 1,
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference"},
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference", ErrorMessages: []string{cmftest.MessageNoDataset}},
	)

	doc, err := Generate(context.Background(), testConfig(base, "prepared-country-data/bangladesh"), Options{
		Logger: slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, models.ErrLayerDuplicate))
	assert.Contains(t, err.Error(), "2021-bgd-001")
}
