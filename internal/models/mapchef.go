package models

import "fmt"

// ErrorKind is an error condition MapChef reports for a layer.
type ErrorKind string

const (
	ErrorKindDatasourceNone     ErrorKind = "LAYER_DATASOURCE_NONE"
	ErrorKindDatasourceMultiple ErrorKind = "LAYER_DATASOURCE_MULTIPLE"
	ErrorKindSchemaInvalid      ErrorKind = "LAYER_SCHEMA_INVALID"
	ErrorKindOutputMissing      ErrorKind = "MAPCHEF_OUTPUT_MISSING"
)

// OutputMissingMessage is the synthetic message given to layers that have no
// MapChef output yet.
const OutputMissingMessage = "MAPCHEF_OUTPUT_MISSING"

// MapChef writes these human readable messages into layer output files. A
// change of wording upstream must fail loudly, so matching is exact.
var errorKindsByMessage = map[string]ErrorKind{
	"Unable to find dataset for this layer":          ErrorKindDatasourceNone,
	"Found multiple datasets which match this layer": ErrorKindDatasourceMultiple,
	"Data schema check failed":                       ErrorKindSchemaInvalid,
	OutputMissingMessage:                             ErrorKindOutputMissing,
}

var errorKindResults = map[ErrorKind]Result{
	ErrorKindOutputMissing:      ResultFail,
	ErrorKindDatasourceNone:     ResultFail,
	ErrorKindDatasourceMultiple: ResultPassWithWarnings,
	ErrorKindSchemaInvalid:      ResultPassWithWarnings,
}

// Classify maps a MapChef error message to its ErrorKind.
func Classify(message string) (ErrorKind, error) {
	kind, ok := errorKindsByMessage[message]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownErrorKind, message)
	}
	return kind, nil
}

// Result returns the evaluation result implied by this error on its own.
// Kinds without a mapping produce ERROR.
func (k ErrorKind) Result() Result {
	if r, ok := errorKindResults[k]; ok {
		return r
	}
	return ResultError
}
