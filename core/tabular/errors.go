package tabular

import "fmt"

// LoadError reports an input that could not be turned into a record set.
type LoadError struct {
	// Path is the file path or URI of the input.
	Path string
	// Line is the offending line, 0 when the failure is not row specific.
	Line int
	// Reason names the violated expectation.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (e *LoadError) Error() string {
	msg := e.Path
	if e.Line > 0 {
		msg = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
