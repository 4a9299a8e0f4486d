package analyzer

import (
	"fmt"

	"go.uber.org/zap"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityReveal
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "reveal"
}

// Diagnostic is an error, warning or revealed type attached to the
// execution point that produced it.
type Diagnostic struct {
	Point    ExecutionPoint
	Severity Severity
	Message  string
}

func (d Diagnostic) Location() string { return d.Point.Location() }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: [%s] %s", d.Location(), d.Severity, d.Message)
}

// report records a diagnostic once per point, severity and message, since
// points are revisited until the analysis settles.
func (s *Scratch) report(ep ExecutionPoint, sev Severity, msg string) {
	key := fmt.Sprintf("%s|%d|%s", ep, sev, msg)
	if s.reported[key] {
		return
	}
	s.reported[key] = true
	d := Diagnostic{Point: ep, Severity: sev, Message: msg}
	s.diagnostics = append(s.diagnostics, d)
	s.log.Debug("diagnostic", zap.String("location", d.Location()), zap.Stringer("severity", sev), zap.String("message", msg))
}

func (s *Scratch) errorf(ep ExecutionPoint, format string, args ...interface{}) {
	s.report(ep, SeverityError, fmt.Sprintf(format, args...))
}

func (s *Scratch) warnf(ep ExecutionPoint, format string, args ...interface{}) {
	s.report(ep, SeverityWarning, fmt.Sprintf(format, args...))
}

func (s *Scratch) reveal(ep ExecutionPoint, msg string) {
	s.report(ep, SeverityReveal, msg)
}
