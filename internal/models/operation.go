package models

import (
	"fmt"
	"path/filepath"
)

type Country struct {
	ISO3 string // ISO 3166-1 alpha-3
	Name string
}

// Operation is one humanitarian response activation, backed by a Crash Move
// Folder on disk.
type Operation struct {
	ID                   string
	Name                 string
	AffectedCountry      Country
	RootPath             string
	MapProductsPath      string
	LayerDefinitionsPath string
}

// NewOperation validates the identity of an operation. An empty id usually
// means the crash move folder was never configured.
func NewOperation(id, name string, country Country, rootPath, mapProductsPath, layerDefinitionsPath string) (*Operation, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty operation id for %s", ErrOperationInvalid, rootPath)
	}

	return &Operation{
		ID:                   id,
		Name:                 name,
		AffectedCountry:      country,
		RootPath:             rootPath,
		MapProductsPath:      mapProductsPath,
		LayerDefinitionsPath: layerDefinitionsPath,
	}, nil
}

// ProductPath is the output directory of a product within this operation.
func (o *Operation) ProductPath(productID string) string {
	return filepath.Join(o.MapProductsPath, productID)
}
