package cmf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/biter777/countries"

	"github.com/mr1hm/rds-dashboard/internal/models"
)

// ResolveOperation loads an operation from the root of its crash move folder.
//
// A missing root or description file yields an error wrapping fs.ErrNotExist.
// An empty operation id or an unrecognised country code yields
// models.ErrOperationInvalid.
func ResolveOperation(root string) (*models.Operation, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("operation root %s: %w", root, err)
	}

	eventPath := filepath.Join(root, eventDescriptionFile)
	var event eventDescription
	if err := readDescription(eventPath, &event); err != nil {
		return nil, err
	}

	id, err := required(eventPath, "operation_id", event.OperationID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty operation id in %s", models.ErrOperationInvalid, eventPath)
	}
	name, err := required(eventPath, "operation_name", event.OperationName)
	if err != nil {
		return nil, err
	}
	iso3, err := required(eventPath, "affected_country_iso3", event.AffectedCountryISO3)
	if err != nil {
		return nil, err
	}
	descriptorPath, err := required(eventPath, "cmf_descriptor_path", event.CMFDescriptorPath)
	if err != nil {
		return nil, err
	}

	country, err := LookupCountry(iso3)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", id, err)
	}

	cmfPath := filepath.Join(root, descriptorPath)
	var desc cmfDescription
	if err := readDescription(cmfPath, &desc); err != nil {
		return nil, err
	}
	mapProjects, err := required(cmfPath, "map_projects", desc.MapProjects)
	if err != nil {
		return nil, err
	}
	layerProperties, err := required(cmfPath, "layer_properties", desc.LayerProperties)
	if err != nil {
		return nil, err
	}

	return models.NewOperation(
		id,
		name,
		country,
		root,
		filepath.Join(root, mapProjects),
		filepath.Join(root, layerProperties),
	)
}

// LayerDefinitions returns the layers MapChef is configured to produce for the
// operation, each flagged as having no output yet. Used when the all-layers
// product has not been generated, so expected layers still show up as failing.
func LayerDefinitions(op *models.Operation) ([]*models.MapLayer, error) {
	var defs layerDefinitions
	if err := readDescription(op.LayerDefinitionsPath, &defs); err != nil {
		return nil, err
	}
	props, err := required(op.LayerDefinitionsPath, "layerProperties", defs.LayerProperties)
	if err != nil {
		return nil, err
	}

	layers := make([]*models.MapLayer, 0, len(props))
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		layer, err := models.NewMapLayer(p.Name, []string{models.OutputMissingMessage})
		if err != nil {
			return nil, err
		}
		if seen[layer.ID] {
			return nil, fmt.Errorf("%s: %w: %s", op.LayerDefinitionsPath, models.ErrLayerDuplicate, layer.ID)
		}
		seen[layer.ID] = true
		layers = append(layers, layer)
	}
	return layers, nil
}

// LookupCountry resolves an ISO 3166-1 alpha-3 code to its display name.
func LookupCountry(iso3 string) (models.Country, error) {
	code := strings.ToUpper(strings.TrimSpace(iso3))
	if len(code) != 3 {
		return models.Country{}, fmt.Errorf("%w: invalid country code %q", models.ErrOperationInvalid, iso3)
	}

	c := countries.ByName(code)
	if c == countries.Unknown || c.Alpha3() != code {
		return models.Country{}, fmt.Errorf("%w: unknown country code %q", models.ErrOperationInvalid, iso3)
	}

	return models.Country{
		ISO3: c.Alpha3(),
		Name: c.String(),
	}, nil
}
