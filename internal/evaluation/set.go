package evaluation

import "github.com/mr1hm/rds-dashboard/internal/models"

// Set owns the evaluations of a run, keyed by operation id. Operation order is
// the order operations were given in; layer order is resolution order.
type Set struct {
	order       []string
	byOperation map[string][]*models.Evaluation
	len         int
}

// NewSet creates one NOT_EVALUATED evaluation per (operation, layer) pair.
// Operations without layers are left out.
func NewSet(ops []*models.Operation, layers map[string][]*models.MapLayer) *Set {
	s := &Set{
		byOperation: make(map[string][]*models.Evaluation, len(ops)),
	}

	for _, op := range FilterOperations(ops, layers) {
		if _, seen := s.byOperation[op.ID]; seen {
			continue
		}
		opLayers := layers[op.ID]
		evals := make([]*models.Evaluation, 0, len(opLayers))
		for _, layer := range opLayers {
			evals = append(evals, models.NewEvaluation(op.ID, layer))
		}
		s.order = append(s.order, op.ID)
		s.byOperation[op.ID] = evals
		s.len += len(evals)
	}

	return s
}

// EvaluateAll grades every evaluation in the set.
func (s *Set) EvaluateAll() {
	for _, id := range s.order {
		for _, e := range s.byOperation[id] {
			e.Evaluate()
		}
	}
}

// All returns every evaluation, grouped by operation.
func (s *Set) All() []*models.Evaluation {
	all := make([]*models.Evaluation, 0, s.len)
	for _, id := range s.order {
		all = append(all, s.byOperation[id]...)
	}
	return all
}

func (s *Set) ForOperation(operationID string) []*models.Evaluation {
	return s.byOperation[operationID]
}

func (s *Set) OperationIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

func (s *Set) Len() int {
	return s.len
}
