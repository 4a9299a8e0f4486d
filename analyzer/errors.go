package analyzer

import "fmt"

// InvariantError reports a state the interpreter can never legitimately
// reach, such as an operand stack underflow. It aborts the analysis.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string { return "internal invariant violated: " + e.msg }

func invariant(format string, args ...interface{}) {
	panic(&InvariantError{msg: fmt.Sprintf(format, args...)})
}

// ArgumentError is a mismatch between a call's actual arguments and the
// callee's formal parameters.
type ArgumentError struct {
	msg string
}

func (e *ArgumentError) Error() string { return e.msg }

func argumentErrorf(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{msg: fmt.Sprintf(format, args...)}
}
