package models

// Evaluation is the graded state of one layer for one operation, i.e. a cell
// in the dashboard. It is created NOT_EVALUATED and graded by Evaluate.
type Evaluation struct {
	OperationID string
	Layer       *MapLayer
	Result      Result
}

func NewEvaluation(operationID string, layer *MapLayer) *Evaluation {
	return &Evaluation{
		OperationID: operationID,
		Layer:       layer,
		Result:      ResultNotEvaluated,
	}
}

// Evaluate grades the layer. A layer without errors passes; otherwise the
// most severe result implied by any of its errors is kept.
func (e *Evaluation) Evaluate() {
	if len(e.Layer.Errors) == 0 {
		e.Result = ResultPass
		return
	}

	result := ResultNotEvaluated
	for _, kind := range e.Layer.Errors {
		if candidate := kind.Result(); candidate.MoreSevereThan(result) {
			result = candidate
		}
	}
	e.Result = result
}

func (e *Evaluation) Evaluated() bool {
	return e.Result != ResultNotEvaluated
}
