package models

// Result is the outcome of an Evaluation.
//
// Results are totally ordered by severity through an explicit rank, not by
// declaration order: NOT_EVALUATED < PASS < PASS_WITH_WARNINGS < FAIL < ERROR.
// When several signals apply to one evaluation the most severe one wins.
type Result string

const (
	ResultNotEvaluated     Result = "NOT_EVALUATED"
	ResultPass             Result = "PASS"
	ResultPassWithWarnings Result = "PASS_WITH_WARNINGS"
	ResultFail             Result = "FAIL"
	ResultError            Result = "ERROR"
)

var resultRanks = map[Result]int{
	ResultNotEvaluated:     0,
	ResultPass:             1,
	ResultPassWithWarnings: 2,
	ResultFail:             3,
	ResultError:            4,
}

var resultLabels = map[Result]string{
	ResultNotEvaluated:     "Not Evaluated",
	ResultPass:             "Pass",
	ResultPassWithWarnings: "Warning",
	ResultFail:             "Fail",
	ResultError:            "Error",
}

// Results returns every result kind, least severe first.
func Results() []Result {
	return []Result{
		ResultNotEvaluated,
		ResultPass,
		ResultPassWithWarnings,
		ResultFail,
		ResultError,
	}
}

// Rank returns the severity rank. Unknown values rank as ERROR so they can
// never be mistaken for a pass.
func (r Result) Rank() int {
	if rank, ok := resultRanks[r]; ok {
		return rank
	}
	return resultRanks[ResultError]
}

func (r Result) MoreSevereThan(other Result) bool {
	return r.Rank() > other.Rank()
}

func (r Result) Valid() bool {
	_, ok := resultRanks[r]
	return ok
}

// Label is the human readable name used in spreadsheets and terminal views.
func (r Result) Label() string {
	if label, ok := resultLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Result) String() string {
	return string(r)
}

// ResultLabels returns a copy of the result display labels keyed by result.
func ResultLabels() map[Result]string {
	labels := make(map[Result]string, len(resultLabels))
	for r, l := range resultLabels {
		labels[r] = l
	}
	return labels
}

// NewResultCounts returns a zeroed tally with every result kind present.
func NewResultCounts() map[Result]int {
	counts := make(map[Result]int, len(resultRanks))
	for _, r := range Results() {
		counts[r] = 0
	}
	return counts
}
