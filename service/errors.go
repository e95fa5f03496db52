package service

import "fmt"

// ErrorKind classifies why an action could not be executed.
type ErrorKind string

const (
	KindMissingCollection ErrorKind = "missing_collection"
	KindUnknownCollection ErrorKind = "unknown_collection"
	KindUnknownAction     ErrorKind = "unknown_action"
	KindInvalidQuery      ErrorKind = "invalid_query"
	KindForbiddenStage    ErrorKind = "forbidden_stage"
	KindMissingField      ErrorKind = "missing_field"
	KindDatabase          ErrorKind = "database"
)

// ExecError is an executor failure that is reported back to the model as data
// rather than aborting the chat turn.
type ExecError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newExecError(kind ErrorKind, msg string) *ExecError {
	return &ExecError{Kind: kind, Message: msg}
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one executed action: either Output or Err is set.
type Result struct {
	Action string
	Output string
	Err    *ExecError
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Text renders the result for inclusion in a prompt.
func (r Result) Text() string {
	if r.Err != nil {
		return fmt.Sprintf("Error (%s): %s", r.Err.Kind, r.Err.Error())
	}
	return r.Output
}

func failed(action string, err *ExecError) Result {
	return Result{Action: action, Err: err}
}
