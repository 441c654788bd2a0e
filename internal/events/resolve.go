package events

import "time"

// FieldResolved is emitted after a wrapped field resolver completes, whether
// it succeeded or failed. ValidationDuration covers validator selection and
// execution; TotalDuration covers the whole interception span.
type FieldResolved struct {
	ObjectType         string
	Field              string
	Start              time.Time
	ValidationDuration time.Duration
	TotalDuration      time.Duration
	Violations         int
	Err                error
}

// GlobalValidation is emitted after the once-per-request global validator
// run finishes.
type GlobalValidation struct {
	Start      time.Time
	Duration   time.Duration
	Violations int
}

// OperationExecuted is emitted after one GraphQL operation executes, before
// validation results are merged into the response.
type OperationExecuted struct {
	Query         string
	OperationName string
	Errors        int
	Duration      time.Duration
}
