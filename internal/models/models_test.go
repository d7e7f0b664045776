package models

import (
	"errors"
	"testing"
)

const (
	msgNoDataset       = "Unable to find dataset for this layer"
	msgMultipleDataset = "Found multiple datasets which match this layer"
	msgSchema          = "Data schema check failed"
)

func TestClassify_KnownMessages(t *testing.T) {
	tests := []struct {
		message string
		want    ErrorKind
	}{
		{msgNoDataset, ErrorKindDatasourceNone},
		{msgMultipleDataset, ErrorKindDatasourceMultiple},
		{msgSchema, ErrorKindSchemaInvalid},
		{OutputMissingMessage, ErrorKindOutputMissing},
	}

	for _, tt := range tests {
		got, err := Classify(tt.message)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", tt.message, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestClassify_UnknownMessage(t *testing.T) {
	for _, msg := range []string{"Some new error", "", "data schema check failed", msgSchema + " "} {
		if _, err := Classify(msg); !errors.Is(err, ErrUnknownErrorKind) {
			t.Errorf("Classify(%q) error = %v, want ErrUnknownErrorKind", msg, err)
		}
	}
}

func TestResult_TotalOrder(t *testing.T) {
	ordered := Results()
	if len(ordered) != 5 {
		t.Fatalf("expected 5 result kinds, got %d", len(ordered))
	}
	for i := range ordered {
		if ordered[i].Rank() != i {
			t.Errorf("%s rank = %d, want %d", ordered[i], ordered[i].Rank(), i)
		}
		for j := range ordered {
			if got, want := ordered[i].MoreSevereThan(ordered[j]), i > j; got != want {
				t.Errorf("%s.MoreSevereThan(%s) = %v, want %v", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestResult_UnknownRanksAsError(t *testing.T) {
	bogus := Result("BOGUS")
	if bogus.Valid() {
		t.Error("expected BOGUS to be invalid")
	}
	if bogus.Rank() != ResultError.Rank() {
		t.Errorf("expected unknown result to rank as ERROR, got %d", bogus.Rank())
	}
	if bogus.Label() != "BOGUS" {
		t.Errorf("expected label fallback to raw value, got %s", bogus.Label())
	}
}

func TestNewResultCounts(t *testing.T) {
	counts := NewResultCounts()
	if len(counts) != 5 {
		t.Fatalf("expected 5 keys, got %d", len(counts))
	}
	for _, r := range Results() {
		if v, ok := counts[r]; !ok || v != 0 {
			t.Errorf("expected %s to be present and zero, got %d (present=%v)", r, v, ok)
		}
	}
}

func TestNewMapLayer_FailsFast(t *testing.T) {
	layer, err := NewMapLayer("mmr-admn-ad0-py-s0-reference", []string{msgSchema, "Some new error", msgNoDataset})
	if !errors.Is(err, ErrUnknownErrorKind) {
		t.Fatalf("expected ErrUnknownErrorKind, got %v", err)
	}
	if layer != nil {
		t.Error("expected no layer on failure")
	}
}

func TestNewMapLayer_PreservesOrder(t *testing.T) {
	layer, err := NewMapLayer("tran-roads-02", []string{msgNoDataset, msgSchema, msgNoDataset})
	if err != nil {
		t.Fatalf("NewMapLayer failed: %v", err)
	}
	want := []ErrorKind{ErrorKindDatasourceNone, ErrorKindSchemaInvalid, ErrorKindDatasourceNone}
	if len(layer.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %d", len(want), len(layer.Errors))
	}
	for i := range want {
		if layer.Errors[i] != want[i] {
			t.Errorf("error %d = %s, want %s", i, layer.Errors[i], want[i])
		}
	}
}

func TestLayerCategory(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"mmr-admn-ad0-py-s0-reference", "admn"},
		{"bgd-tran-rds-ln-s0-osm-pp-roads", "tran"},
		{"admn-a", "admn"},
		{"elev-dem-01", "elev"},
		{"tran-roads-02", "tran"},
		{"mmr-wrl-cst-ln", "wrl"},
	}
	for _, tt := range tests {
		got, err := LayerCategory(tt.id)
		if err != nil {
			t.Errorf("LayerCategory(%q) failed: %v", tt.id, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LayerCategory(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestLayerCategory_Malformed(t *testing.T) {
	for _, id := range []string{"", "roads", "-admn", "admn-"} {
		if _, err := LayerCategory(id); !errors.Is(err, ErrLayerIDMalformed) {
			t.Errorf("LayerCategory(%q) error = %v, want ErrLayerIDMalformed", id, err)
		}
	}
}

func TestNewOperation_EmptyID(t *testing.T) {
	_, err := NewOperation("", "Unconfigured", Country{ISO3: "BGD", Name: "Bangladesh"}, "/cmf", "/cmf/maps", "/cmf/layers.json")
	if !errors.Is(err, ErrOperationInvalid) {
		t.Fatalf("expected ErrOperationInvalid, got %v", err)
	}
}

func TestOperation_ProductPath(t *testing.T) {
	op, err := NewOperation("2021-bgd-001", "Bangladesh floods", Country{ISO3: "BGD", Name: "Bangladesh"}, "/cmf", "/cmf/GIS/3_Mapping/33_MapChef", "/cmf/layerProperties.json")
	if err != nil {
		t.Fatalf("NewOperation failed: %v", err)
	}
	if got := op.ProductPath("MA9999"); got != "/cmf/GIS/3_Mapping/33_MapChef/MA9999" {
		t.Errorf("unexpected product path %s", got)
	}
}
