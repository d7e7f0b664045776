package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/rds-dashboard/internal/cmf/cmftest"
	"github.com/mr1hm/rds-dashboard/internal/config"
	"github.com/mr1hm/rds-dashboard/internal/evaluation"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const operationsPath = "Shared drives"

// syncBuffer guards a buffer shared by concurrent log writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// records decodes the JSON log lines at level.
func (b *syncBuffer) records(level string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err == nil && rec["level"] == level {
			out = append(out, rec)
		}
	}
	return out
}

func testConfig(base string, paths ...string) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			BasePath:           base,
			OperationsPath:     operationsPath,
			OperationPaths:     paths,
			AllLayersProductID: cmftest.AllLayersProductID,
		},
		Worker: config.WorkerConfig{
			Count:      4,
			BufferSize: 2,
		},
	}
}

func newTestManager(cfg *config.Config) (*Manager, *syncBuffer) {
	logs := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewManager(cfg, WithLogger(logger)), logs
}

// countryDir is where test crash move folders live relative to the base path.
func countryDir(base string) string {
	return filepath.Join(base, operationsPath, "prepared-country-data")
}

func withProduct(f *cmftest.Folder, layers ...cmftest.Layer) *cmftest.Folder {
	f.WriteLayerDefinitions("unused-admn-ad0-py-s0-reference")
	f.WriteAllLayers("MA9999_v1.json", 1, layers...)
	return f
}

func TestScan_OrderFollowsConfig(t *testing.T) {
	base := t.TempDir()
	countries := []struct{ name, id, iso3 string }{
		{"vanuatu", "2021-vut-001", "VUT"},
		{"bangladesh", "2021-bgd-001", "BGD"},
		{"nepal", "2021-npl-001", "NPL"},
		{"mali", "2021-mli-001", "MLI"},
		{"fiji", "2021-fji-001", "FJI"},
		{"kenya", "2021-ken-001", "KEN"},
	}
	var paths, want []string
	for _, c := range countries {
		withProduct(cmftest.NewFolder(t, countryDir(base), c.name, c.id, c.iso3),
			cmftest.Layer{Name: c.iso3 + "-admn-ad0-py-s0-reference"})
		paths = append(paths, "prepared-country-data/"+c.name)
		want = append(want, c.id)
	}

	for run := 0; run < 5; run++ {
		mgr, _ := newTestManager(testConfig(base, paths...))
		snap, err := mgr.Scan(context.Background())
		require.NoError(t, err)

		var got []string
		for _, op := range snap.Operations {
			got = append(got, op.ID)
			assert.Equal(t, evaluation.SourceProduct, snap.Sources[op.ID])
		}
		assert.Equal(t, want, got, "run %d", run)
	}
}

func TestScan_EmptyOperationIDWarnsOnce(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "bangladesh", "2021-bgd-001", "BGD"),
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference"})
	withProduct(cmftest.NewFolder(t, countryDir(base), "haiti", "", "HTI"),
		cmftest.Layer{Name: "hti-admn-ad0-py-s0-reference"})

	mgr, logs := newTestManager(testConfig(base, "prepared-country-data/bangladesh", "prepared-country-data/haiti"))
	snap, err := mgr.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Operations, 1)
	assert.Equal(t, "2021-bgd-001", snap.Operations[0].ID)

	warnings := logs.records("WARN")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0]["path"], "haiti")
	assert.Contains(t, warnings[0]["error"], models.ErrOperationInvalid.Error())
}

func TestScan_MissingPathWarned(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "nepal", "2021-npl-001", "NPL"),
		cmftest.Layer{Name: "npl-admn-ad0-py-s0-reference"})

	mgr, logs := newTestManager(testConfig(base, "prepared-country-data/nepal", "prepared-country-data/atlantis"))
	snap, err := mgr.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Operations, 1)
	warnings := logs.records("WARN")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0]["path"], "atlantis")
}

func TestScan_FallbackLayersFail(t *testing.T) {
	base := t.TempDir()
	f := cmftest.NewFolder(t, countryDir(base), "cameroon", "2021-cmr-001", "CMR")
	f.WriteLayerDefinitions("cmr-admn-ad0-py-s0-reference", "cmr-tran-rds-ln-s0-osm-pp-roads")

	mgr, _ := newTestManager(testConfig(base, "prepared-country-data/cameroon"))
	snap, err := mgr.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Operations, 1)
	assert.Equal(t, evaluation.SourceFallback, snap.Sources["2021-cmr-001"])

	set := evaluation.NewSet(snap.Operations, snap.Layers)
	set.EvaluateAll()
	require.Equal(t, 2, set.Len())
	for _, e := range set.All() {
		assert.Equal(t, models.ResultFail, e.Result, e.Layer.ID)
	}
}

func TestScan_UnknownMessageAborts(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "bangladesh", "2021-bgd-001", "BGD"),
		cmftest.Layer{Name: "bgd-admn-ad0-py-s0-reference"})
	withProduct(cmftest.NewFolder(t, countryDir(base), "malawi", "2021-mwi-001", "MWI"),
		cmftest.Layer{Name: "mwi-admn-ad0-py-s0-reference", ErrorMessages: []string{"Layer exploded"}})

	mgr, _ := newTestManager(testConfig(base, "prepared-country-data/bangladesh", "prepared-country-data/malawi"))
	snap, err := mgr.Scan(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, models.ErrUnknownErrorKind))
	assert.Contains(t, err.Error(), "2021-mwi-001")
}

func TestScan_DuplicateOperationID(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "philippines", "2021-phl-001", "PHL"),
		cmftest.Layer{Name: "phl-admn-ad0-py-s0-reference"})
	withProduct(cmftest.NewFolder(t, countryDir(base), "philippines-copy", "2021-phl-001", "PHL"),
		cmftest.Layer{Name: "phl-tran-rds-ln-s0-osm-pp-roads"})

	mgr, logs := newTestManager(testConfig(base, "prepared-country-data/philippines", "prepared-country-data/philippines-copy"))
	snap, err := mgr.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Operations, 1)
	assert.Equal(t, "phl-admn-ad0-py-s0-reference", snap.Layers["2021-phl-001"][0].ID)
	assert.Len(t, logs.records("WARN"), 1)
}

func TestScan_OperationWithoutLayers(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "dominica", "2021-dma-001", "DMA"))

	mgr, _ := newTestManager(testConfig(base, "prepared-country-data/dominica"))
	snap, err := mgr.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Operations, 1)
	assert.Empty(t, snap.Layers["2021-dma-001"])
	assert.Zero(t, evaluation.NewSet(snap.Operations, snap.Layers).Len())
}

func TestScan_Cancelled(t *testing.T) {
	base := t.TempDir()
	withProduct(cmftest.NewFolder(t, countryDir(base), "fiji", "2021-fji-001", "FJI"),
		cmftest.Layer{Name: "fji-admn-ad0-py-s0-reference"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mgr, _ := newTestManager(testConfig(base, "prepared-country-data/fiji"))
	_, err := mgr.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOperationRoots(t *testing.T) {
	base := t.TempDir()
	for _, c := range []struct{ name, id, iso3 string }{
		{"pakistan", "2021-pak-001", "PAK"},
		{"myanmar", "2021-mmr-001", "MMR"},
	} {
		cmftest.NewFolder(t, countryDir(base), c.name, c.id, c.iso3)
	}

	mgr, logs := newTestManager(testConfig(base,
		"country-responses/2021-moz-001",
		"prepared-country-data/*",
		"prepared-country-data/myanmar",
		"prepared-country-data/z*",
	))
	roots, err := mgr.OperationRoots()
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(base, operationsPath, "country-responses", "2021-moz-001"),
		filepath.Join(countryDir(base), "myanmar"),
		filepath.Join(countryDir(base), "pakistan"),
	}, roots)
	assert.Len(t, logs.records("WARN"), 1, "unmatched pattern")
}
