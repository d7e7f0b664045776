package models

import (
	"fmt"
	"sort"
	"strings"
)

// MapLayer is one layer within a map product and the unit that gets evaluated.
type MapLayer struct {
	ID     string
	Errors []ErrorKind
}

// NewMapLayer classifies every MapChef message up front and fails on the
// first one it does not recognise.
func NewMapLayer(id string, messages []string) (*MapLayer, error) {
	errs := make([]ErrorKind, 0, len(messages))
	for _, msg := range messages {
		kind, err := Classify(msg)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", id, err)
		}
		errs = append(errs, kind)
	}

	return &MapLayer{
		ID:     id,
		Errors: errs,
	}, nil
}

func (l *MapLayer) Category() (string, error) {
	return LayerCategory(l.ID)
}

const layerIDSeparator = "-"

// Category clause codes from the MapAction data naming convention.
var categoryLabels = map[string]string{
	"admn":  "Admin",
	"carto": "Cartographic",
	"elev":  "Elevation",
	"phys":  "Physical features",
	"stle":  "Settlements",
	"tran":  "Transport",
}

// Categories returns the known category codes in sorted order.
func Categories() []string {
	codes := make([]string, 0, len(categoryLabels))
	for code := range categoryLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CategoryLabels returns a copy of the category display labels keyed by code.
func CategoryLabels() map[string]string {
	labels := make(map[string]string, len(categoryLabels))
	for c, l := range categoryLabels {
		labels[c] = l
	}
	return labels
}

func IsKnownCategory(code string) bool {
	_, ok := categoryLabels[code]
	return ok
}

// LayerCategory derives the category of a layer id.
//
// Conventional ids look like "mmr-admn-ad1-py-s0-reference" where the second
// segment is the category. Short ids such as "admn-a" lead with the category
// instead. An id with fewer than two segments cannot be placed.
func LayerCategory(layerID string) (string, error) {
	segments := strings.Split(layerID, layerIDSeparator)
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", fmt.Errorf("%w: %q", ErrLayerIDMalformed, layerID)
	}

	if IsKnownCategory(segments[1]) {
		return segments[1], nil
	}
	if IsKnownCategory(segments[0]) {
		return segments[0], nil
	}
	return segments[1], nil
}
