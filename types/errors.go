package types

import (
	"errors"
	"fmt"
)

// MalformedInputError reports a run result that violates the input contract,
// such as an unknown test status or missing suite timings.
type MalformedInputError struct {
	Suite  string // Suite path, if known
	Test   string // Test title, if the problem is with a single test
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Suite != "" && e.Test != "":
		return fmt.Sprintf("malformed input: suite %q test %q: %s", e.Suite, e.Test, e.Reason)
	case e.Suite != "":
		return fmt.Sprintf("malformed input: suite %q: %s", e.Suite, e.Reason)
	default:
		return fmt.Sprintf("malformed input: %s", e.Reason)
	}
}

// IsMalformedInput checks if the error is or wraps a MalformedInputError
func IsMalformedInput(err error) bool {
	var malformed *MalformedInputError
	return err != nil && errors.As(err, &malformed)
}
