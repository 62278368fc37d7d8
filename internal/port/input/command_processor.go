package input

import (
	"context"

	"github.com/cashflow/payflow/internal/core"
)

// CommandProcessor is an input port that executes one raw command line
// Primary adapters (CLI session, HTTP command endpoint) will use this
type CommandProcessor interface {
	// Execute tokenizes, dispatches and runs a single line
	Execute(ctx context.Context, line string) (*Result, error)
}

// Result is the outcome of a successfully executed line
type Result struct {
	// Command is the dispatched command name, empty for blank lines
	Command string
	Comment string
	Message string
	// Payments holds records for reporting commands
	Payments []core.Payment
	// Events holds transition events for AUDIT
	Events []core.TransitionEvent
	// Exit asks the front end to end the session
	Exit bool
}

// Blank reports whether the line carried no command
func (r *Result) Blank() bool {
	return r.Command == ""
}
