// Package cmftest builds crash move folders on disk for tests.
package cmftest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const (
	DescriptorPath       = "GIS/cmf_description.json"
	MapProjectsPath      = "GIS/3_Mapping/33_MapChef"
	LayerPropertiesPath  = "GIS/3_Mapping/31_Resources/316_Automation/layerProperties.json"
	AllLayersProductID   = "MA9999"
	PrincipalFrameName   = "Main map"
	MessageNoDataset     = "Unable to find dataset for this layer"
	MessageMultipleFound = "Found multiple datasets which match this layer"
	MessageSchemaInvalid = "Data schema check failed"
)

// Layer is one layer entry of a MapChef iteration file.
type Layer struct {
	Name          string   `json:"name"`
	ErrorMessages []string `json:"error_messages"`
}

type Frame struct {
	Name   string  `json:"name"`
	Layers []Layer `json:"layers"`
}

// Iteration is the content of a MapChef iteration file.
type Iteration struct {
	MapNumber         string  `json:"mapnumber"`
	Product           string  `json:"product"`
	VersionNum        any     `json:"version_num"`
	PrincipalMapFrame string  `json:"principal_map_frame"`
	MapFrames         []Frame `json:"map_frames"`
}

// Folder is a crash move folder rooted at Root.
type Folder struct {
	t    testing.TB
	Root string
}

// NewFolder creates a configured crash move folder under dir/name.
func NewFolder(t testing.TB, dir, name, operationID, iso3 string) *Folder {
	t.Helper()
	f := &Folder{t: t, Root: filepath.Join(dir, name)}
	f.WriteJSON("event_description.json", map[string]any{
		"operation_id":          operationID,
		"operation_name":        "Operation " + name,
		"affected_country_iso3": iso3,
		"cmf_descriptor_path":   DescriptorPath,
	})
	f.WriteJSON(DescriptorPath, map[string]any{
		"map_projects":     MapProjectsPath,
		"layer_properties": LayerPropertiesPath,
	})
	return f
}

// WriteJSON writes v as JSON to a path relative to the folder root.
func (f *Folder) WriteJSON(rel string, v any) string {
	f.t.Helper()
	path := filepath.Join(f.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		f.t.Fatalf("mkdir %s: %v", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		f.t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteLayerDefinitions writes the fallback layer definitions file.
func (f *Folder) WriteLayerDefinitions(names ...string) {
	f.t.Helper()
	props := make([]map[string]any, 0, len(names))
	for _, n := range names {
		props = append(props, map[string]any{"name": n, "reg": ".*"})
	}
	f.WriteJSON(LayerPropertiesPath, map[string]any{"layerProperties": props})
}

// WriteIteration writes a MapChef iteration file for productID.
func (f *Folder) WriteIteration(productID, fileName string, it Iteration) string {
	f.t.Helper()
	return f.WriteJSON(filepath.Join(MapProjectsPath, productID, fileName), it)
}

// WriteAllLayers writes an iteration of the all-layers product whose principal
// frame holds layers.
func (f *Folder) WriteAllLayers(fileName string, version int, layers ...Layer) string {
	f.t.Helper()
	for i := range layers {
		if layers[i].ErrorMessages == nil {
			layers[i].ErrorMessages = []string{}
		}
	}
	return f.WriteIteration(AllLayersProductID, fileName, Iteration{
		MapNumber:         AllLayersProductID,
		Product:           "All layers",
		VersionNum:        version,
		PrincipalMapFrame: PrincipalFrameName,
		MapFrames: []Frame{
			{Name: PrincipalFrameName, Layers: layers},
		},
	})
}

// ProductDir is the output directory of productID.
func (f *Folder) ProductDir(productID string) string {
	return filepath.Join(f.Root, MapProjectsPath, productID)
}
