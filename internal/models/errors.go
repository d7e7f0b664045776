package models

import "errors"

var (
	// ErrOperationInvalid marks an operation that cannot be reported on, e.g. an
	// unconfigured crash move folder with an empty operation id.
	ErrOperationInvalid = errors.New("operation invalid")

	// ErrProductInvalid marks a map product with no directory or no iterations yet.
	ErrProductInvalid = errors.New("map product invalid")

	// ErrUnknownErrorKind is returned for a MapChef message outside the known set.
	ErrUnknownErrorKind = errors.New("unknown mapchef error message")

	// ErrLayerIDMalformed is returned when a layer id does not follow the data
	// naming convention closely enough to derive a category.
	ErrLayerIDMalformed = errors.New("layer id malformed")

	// ErrLayerDuplicate is returned when a layer id appears twice in one product
	// iteration or layer definitions file.
	ErrLayerDuplicate = errors.New("duplicate layer id")
)
