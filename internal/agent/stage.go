package agent

import (
	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// Stage is a named unit of work in the pipeline.
type Stage struct {
	// Name is the stage's routing name.
	Name string

	// Role selects the backend model for this stage.
	Role string

	// Temperature is the sampling temperature for this stage's calls.
	Temperature float64

	// ToolNames is the capability subset this stage may invoke. Empty
	// means the stage is a pure completion with no agency.
	ToolNames []string

	// Instruction builds the stage's system instruction from the current
	// state.
	Instruction func(st *session.State) string

	// Finalize turns the loop result into the update to merge into
	// shared state.
	Finalize func(res *Result) session.Update
}
