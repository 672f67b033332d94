package model

// SubmissionState is the explicit lifecycle of one chat submission. The UI
// layer is a pure projection of this value; it never infers state from which
// elements happen to exist.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateStreaming
	StateCompleted
	StateAborted
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the state by name so wire consumers never depend on
// the numeric ordering.
func (s SubmissionState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Terminal reports whether the submission has finished one way or another.
func (s SubmissionState) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}
