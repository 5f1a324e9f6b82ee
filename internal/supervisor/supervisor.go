package supervisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// DefaultMaxIterations caps supervisor decisions per session.
const DefaultMaxIterations = 12

const promptTemplate = `You are the supervisor of an engineering pipeline. Decide which stage runs
next, or FINISH when everything is complete.

Current phase: %s
Iteration: %d of %d

Checklist:
%s

Available stages: %s

Respond with ONLY a JSON object: {"next": "<stage or FINISH>", "reason": "<one sentence>"}`

// Supervisor computes the next stage or termination from shared state.
type Supervisor struct {
	client     *llm.Client
	milestones []Milestone
	stages     []string
	cap        int
	logger     *logging.Logger
}

// New creates a supervisor routing over stages (in pipeline order) with the
// given milestones and iteration cap.
func New(client *llm.Client, milestones []Milestone, stages []string, iterationCap int, logger *logging.Logger) *Supervisor {
	if iterationCap <= 0 {
		iterationCap = DefaultMaxIterations
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{
		client:     client,
		milestones: milestones,
		stages:     stages,
		cap:        iterationCap,
		logger:     logger,
	}
}

// Cap returns the iteration cap.
func (s *Supervisor) Cap() int { return s.cap }

// Complete reports whether every milestone holds.
func (s *Supervisor) Complete(st *session.State) bool {
	return len(s.unmet(st)) == 0
}

// Decide computes the routing decision for the current state and returns it
// together with the update to merge: one supervisor announcement message,
// an iteration increment of exactly 1, and the new phase.
//
// An unparseable backend answer never fails the call; it degrades to
// terminal. Only a backend error (after retry exhaustion) is returned.
func (s *Supervisor) Decide(ctx context.Context, st *session.State) (Decision, session.Update, error) {
	step := st.Iterations + 1
	unmet := s.unmet(st)

	prompt := fmt.Sprintf(promptTemplate,
		st.Phase,
		step,
		s.cap,
		s.checklist(st),
		strings.Join(s.stages, ", "),
	)
	messages := make([]conversation.Message, 0, len(st.Messages)+1)
	messages = append(messages, conversation.System(prompt))
	messages = append(messages, st.Messages...)

	resp, err := s.client.Complete(ctx, llm.RoleSupervisor, 0, messages, nil)
	if err != nil {
		return Decision{}, session.Update{}, fmt.Errorf("supervisor decision failed: %w", err)
	}

	decision := s.decode(resp.Content)
	decision = s.guard(decision, step, unmet)

	s.logger.Info("routing decision",
		zap.String("next", decision.Next),
		zap.String("reason", decision.Reason),
		zap.Int("iteration", step),
		zap.Int("cap", s.cap),
	)

	phase := decision.Next
	if decision.Terminal() {
		phase = "finished"
	}
	update := session.Update{
		Messages: []conversation.Message{
			conversation.SupervisorNote(fmt.Sprintf("Routing to **%s**: %s", decision.Next, decision.Reason)),
		},
		Phase:          phase,
		IterationDelta: 1,
	}
	return decision, update, nil
}

// decode runs the strict decoder, then the substring fallback, then the
// terminal default, and rejects routes outside the registry.
func (s *Supervisor) decode(content string) Decision {
	routes := append(append([]string{}, s.stages...), RouteFinish)

	decision, ok := DecodeStrict(content)
	if !ok {
		decision, ok = DecodeFallback(content, routes)
	}
	if !ok {
		return Decision{Next: RouteFinish, Reason: "Could not parse routing decision; finishing."}
	}
	if !decision.Terminal() && !s.known(decision.Next) {
		return Decision{Next: RouteFinish, Reason: fmt.Sprintf("Unknown route %q; finishing.", decision.Next)}
	}
	return decision
}

// guard enforces the invariants the backend cannot be trusted with.
func (s *Supervisor) guard(decision Decision, step int, unmet []Milestone) Decision {
	if step >= s.cap {
		if decision.Terminal() && len(unmet) == 0 {
			return decision
		}
		reason := fmt.Sprintf("Iteration cap (%d) reached; forcing FINISH.", s.cap)
		if len(unmet) > 0 {
			reason = fmt.Sprintf("Iteration cap (%d) reached; forcing FINISH. Unmet milestones: %s.", s.cap, milestoneNames(unmet))
			s.logger.Warn("forced termination with unmet milestones",
				zap.Int("cap", s.cap),
				zap.String("unmet", milestoneNames(unmet)),
			)
		}
		return Decision{Next: RouteFinish, Reason: reason}
	}

	if decision.Terminal() && len(unmet) > 0 {
		first := unmet[0]
		return Decision{
			Next: first.Stage,
			Reason: fmt.Sprintf("Cannot finish yet, incomplete milestones: %s. Routing to %s.",
				milestoneNames(unmet), first.Stage),
		}
	}
	return decision
}

func (s *Supervisor) unmet(st *session.State) []Milestone {
	var out []Milestone
	for _, m := range s.milestones {
		if !m.Met(st) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Supervisor) checklist(st *session.State) string {
	var sb strings.Builder
	for i, m := range s.milestones {
		if i > 0 {
			sb.WriteByte('\n')
		}
		mark := " "
		if m.Met(st) {
			mark = "x"
		}
		fmt.Fprintf(&sb, "  [%s] %s", mark, m.Name)
	}
	return sb.String()
}

func (s *Supervisor) known(route string) bool {
	for _, st := range s.stages {
		if st == route {
			return true
		}
	}
	return false
}

func milestoneNames(ms []Milestone) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return strings.Join(names, ", ")
}
