package supervisor

import (
	"github.com/fyrsmithlabs/orchestrd/internal/agent"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// RouteFinish is the terminal sentinel.
const RouteFinish = "FINISH"

// Decision is the supervisor's routing verdict: a stage name or the
// terminal sentinel, plus a human-readable justification.
type Decision struct {
	Next   string
	Reason string
}

// Terminal reports whether the decision ends the pipeline.
func (d Decision) Terminal() bool { return d.Next == RouteFinish }

// Milestone is a boolean completion predicate over shared state, owned by
// exactly one stage. The milestone→stage mapping is configuration data,
// not hardcoded routing.
type Milestone struct {
	// Name appears in checklists and justifications.
	Name string

	// Stage is routed to when this is the first unmet milestone.
	Stage string

	// Met evaluates the predicate.
	Met func(st *session.State) bool
}

// DefaultMilestones returns the standard pipeline milestones in order.
// Completion is the conjunction of all of them.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{
			Name:  "requirements",
			Stage: agent.StageRequirements,
			Met:   func(st *session.State) bool { return st.HasArtifact(session.ArtifactRequirements) },
		},
		{
			Name:  "system design",
			Stage: agent.StageSystemDesign,
			Met:   func(st *session.State) bool { return st.HasArtifact(session.ArtifactDesign) },
		},
		{
			Name:  "code",
			Stage: agent.StageCoding,
			Met:   func(st *session.State) bool { return len(st.CodeFiles) > 0 },
		},
		{
			Name:  "tests passing",
			Stage: agent.StageTesting,
			Met:   func(st *session.State) bool { return st.TestsPassing },
		},
		{
			Name:  "monitoring",
			Stage: agent.StageMonitoring,
			Met:   func(st *session.State) bool { return st.HasArtifact(session.ArtifactMonitoring) },
		},
	}
}
