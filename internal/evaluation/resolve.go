// Package evaluation resolves the layers of each operation and grades them.
package evaluation

import (
	"errors"

	"github.com/mr1hm/rds-dashboard/internal/cmf"
	"github.com/mr1hm/rds-dashboard/internal/models"
)

// Source records where an operation's layers came from.
type Source string

const (
	SourceProduct  Source = "product"
	SourceFallback Source = "fallback"
)

// ProductOutcome is the result of resolving a product: either a product or
// the error that prevented it.
type ProductOutcome struct {
	Product *models.MapProduct
	Err     error
}

// TryProduct resolves productID within the operation's map products.
func TryProduct(op *models.Operation, productID string) ProductOutcome {
	product, err := cmf.ResolveProduct(op.ProductPath(productID))
	return ProductOutcome{Product: product, Err: err}
}

// LayersOr returns the product's layers. Only a missing product (no directory
// or no iterations) calls fallback; malformed product data is returned as is.
func (o ProductOutcome) LayersOr(fallback func() ([]*models.MapLayer, error)) ([]*models.MapLayer, Source, error) {
	if o.Err == nil {
		return o.Product.Layers, SourceProduct, nil
	}
	if errors.Is(o.Err, models.ErrProductInvalid) {
		layers, err := fallback()
		return layers, SourceFallback, err
	}
	return nil, "", o.Err
}

// ResolveLayers returns the layers of the operation's all-layers product, or
// the operation's layer definitions when that product has not been generated.
func ResolveLayers(op *models.Operation, productID string) ([]*models.MapLayer, Source, error) {
	return TryProduct(op, productID).LayersOr(func() ([]*models.MapLayer, error) {
		return cmf.LayerDefinitions(op)
	})
}

// FilterOperations keeps operations that resolved at least one layer.
func FilterOperations(ops []*models.Operation, layers map[string][]*models.MapLayer) []*models.Operation {
	valid := make([]*models.Operation, 0, len(ops))
	for _, op := range ops {
		if len(layers[op.ID]) > 0 {
			valid = append(valid, op)
		}
	}
	return valid
}
