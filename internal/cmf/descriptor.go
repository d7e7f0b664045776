// Package cmf reads the description files of a Crash Move Folder (CMF) and
// the MapChef output files it contains.
package cmf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
)

const (
	eventDescriptionFile = "event_description.json"
	iterationPattern     = "*.json"
)

type eventDescription struct {
	OperationID         *string `json:"operation_id"`
	OperationName       *string `json:"operation_name"`
	AffectedCountryISO3 *string `json:"affected_country_iso3"`
	CMFDescriptorPath   *string `json:"cmf_descriptor_path"`
}

type cmfDescription struct {
	MapProjects     *string `json:"map_projects"`
	LayerProperties *string `json:"layer_properties"`
}

type layerDefinitions struct {
	LayerProperties *[]struct {
		Name string `json:"name"`
	} `json:"layerProperties"`
}

// mapChefDescription is one product iteration written by MapChef.
type mapChefDescription struct {
	MapNumber         *string         `json:"mapnumber"`
	Product           *string         `json:"product"`
	VersionNum        *versionNumber  `json:"version_num"`
	PrincipalMapFrame *string         `json:"principal_map_frame"`
	MapFrames         *[]mapChefFrame `json:"map_frames"`
}

type mapChefFrame struct {
	Name   string         `json:"name"`
	Layers []mapChefLayer `json:"layers"`
}

type mapChefLayer struct {
	Name          string   `json:"name"`
	ErrorMessages []string `json:"error_messages"`
}

// versionNumber accepts 3, 3.0 and "3".
type versionNumber int

func (v *versionNumber) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if f != math.Trunc(f) {
			return fmt.Errorf("version_num: expected integer, got %s", string(b))
		}
		*v = versionNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("version_num: expected integer, got %s", string(b))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("version_num: %w", err)
	}
	*v = versionNumber(n)
	return nil
}

func readDescription(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return nil
}

func required[T any](path, key string, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("%s: missing required key %q", path, key)
	}
	return *v, nil
}
