package cmf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mr1hm/rds-dashboard/internal/models"
)

// ResolveProduct loads the latest iteration of the product in root.
//
// MapChef names iteration files so that the greatest name is the most recent
// one; earlier iterations are ignored. Only the principal map frame is read,
// and a principal frame missing from the frame list yields no layers.
func ResolveProduct(root string) (*models.MapProduct, error) {
	path, err := latestIteration(root)
	if err != nil {
		return nil, err
	}

	var desc mapChefDescription
	if err := readDescription(path, &desc); err != nil {
		return nil, err
	}

	id, err := required(path, "mapnumber", desc.MapNumber)
	if err != nil {
		return nil, err
	}
	name, err := required(path, "product", desc.Product)
	if err != nil {
		return nil, err
	}
	version, err := required(path, "version_num", desc.VersionNum)
	if err != nil {
		return nil, err
	}
	principal, err := required(path, "principal_map_frame", desc.PrincipalMapFrame)
	if err != nil {
		return nil, err
	}
	frames, err := required(path, "map_frames", desc.MapFrames)
	if err != nil {
		return nil, err
	}

	var frame mapChefFrame
	for _, f := range frames {
		if f.Name == principal {
			frame = f
			break
		}
	}

	layers := make([]*models.MapLayer, 0, len(frame.Layers))
	seen := make(map[string]bool, len(frame.Layers))
	for _, l := range frame.Layers {
		layer, err := models.NewMapLayer(l.Name, l.ErrorMessages)
		if err != nil {
			return nil, fmt.Errorf("product %s (%s): %w", id, path, err)
		}
		if seen[layer.ID] {
			return nil, fmt.Errorf("product %s (%s): %w: %s", id, path, models.ErrLayerDuplicate, layer.ID)
		}
		seen[layer.ID] = true
		layers = append(layers, layer)
	}

	return &models.MapProduct{
		ID:      id,
		Name:    name,
		Version: int(version),
		Layers:  layers,
	}, nil
}

func latestIteration(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", models.ErrProductInvalid, root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), iterationPattern)
	if err != nil {
		return "", fmt.Errorf("error listing iterations in %s: %w", root, err)
	}

	files := matches[:0]
	for _, m := range matches {
		if fi, err := os.Stat(filepath.Join(root, m)); err == nil && fi.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no iterations in %s", models.ErrProductInvalid, root)
	}

	sort.Strings(files)
	return filepath.Join(root, files[len(files)-1]), nil
}
