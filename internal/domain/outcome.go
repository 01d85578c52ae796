package domain

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDegraded
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of interpreting one model response. Result is set
// for Success and Degraded; Err is set for Failure.
type Outcome struct {
	Kind   OutcomeKind
	Result PredictionResult
	Err    error
}

func Success(r PredictionResult) Outcome { return Outcome{Kind: OutcomeSuccess, Result: r} }

func Degraded(r PredictionResult) Outcome { return Outcome{Kind: OutcomeDegraded, Result: r} }

func Failure(err error) Outcome { return Outcome{Kind: OutcomeFailure, Err: err} }
