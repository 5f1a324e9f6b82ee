package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/agent"
	"github.com/fyrsmithlabs/orchestrd/internal/checkpoint"
	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/progress"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
	"github.com/fyrsmithlabs/orchestrd/internal/supervisor"
)

// PhaseFinished marks a session whose supervisor issued a terminal route.
const PhaseFinished = "finished"

// Snapshot is the controller's answer to Start or Resume: where the
// session stands now. Done and PendingStage are mutually exclusive.
type Snapshot struct {
	SessionID    string
	State        *session.State
	PendingStage string
	Version      int
	Done         bool
}

// Suspended reports whether the pipeline stopped before a stage and is
// waiting for Resume.
func (s *Snapshot) Suspended() bool { return s.PendingStage != "" }

// Controller owns the decide/execute/checkpoint cycle for sessions.
type Controller struct {
	supervisor *supervisor.Supervisor
	stages     map[string]*agent.Stage
	loop       *agent.Loop
	store      checkpoint.Store
	interrupt  map[string]struct{}
	reporter   progress.Reporter
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *logging.Logger
}

// New creates a controller. interruptBefore names stages the pipeline
// suspends before; names not in stages are rejected.
func New(
	sup *supervisor.Supervisor,
	stages map[string]*agent.Stage,
	loop *agent.Loop,
	store checkpoint.Store,
	interruptBefore []string,
	reporter progress.Reporter,
	logger *logging.Logger,
) (*Controller, error) {
	if sup == nil || loop == nil || store == nil {
		return nil, errors.New("orchestrator: supervisor, loop, and store are required")
	}
	if len(stages) == 0 {
		return nil, errors.New("orchestrator: at least one stage is required")
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	interrupt := make(map[string]struct{}, len(interruptBefore))
	for _, name := range interruptBefore {
		if _, ok := stages[name]; !ok {
			return nil, fmt.Errorf("orchestrator: interrupt_before names unknown stage %q", name)
		}
		interrupt[name] = struct{}{}
	}

	metrics, err := NewMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: init metrics: %w", err)
	}

	return &Controller{
		supervisor: sup,
		stages:     stages,
		loop:       loop,
		store:      store,
		interrupt:  interrupt,
		reporter:   reporter,
		metrics:    metrics,
		tracer:     otel.Tracer(InstrumentationName),
		logger:     logger,
	}, nil
}

// Store exposes the checkpoint store, for callers that inspect session
// history.
func (c *Controller) Store() checkpoint.Store { return c.store }

// Start begins a new session from prompt and runs it until it finishes or
// suspends before an interrupt stage. seed files, if any, are preloaded
// into the code-file map so stages build on existing work.
func (c *Controller) Start(ctx context.Context, prompt string, seed map[string]string) (*Snapshot, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("orchestrator: prompt must not be empty")
	}

	sessionID := uuid.NewString()
	st := session.New(prompt)
	if len(seed) > 0 {
		st.Apply(session.Update{CodeFiles: seed})
	}
	c.metrics.RecordSessionStart(ctx)
	c.logger.Info("session started", zap.String("session_id", sessionID))

	return c.run(ctx, sessionID, st)
}

// Resume continues a session from its latest checkpoint. patch messages
// are appended to the history before anything runs, so user feedback is
// visible to the pending stage and every later step. Resuming a session
// with no checkpoints returns checkpoint.ErrNotFound; resuming a finished
// session runs nothing — the final snapshot is returned, and a supplied
// patch is checkpointed so it stays in the session record.
func (c *Controller) Resume(ctx context.Context, sessionID string, patch []conversation.Message) (*Snapshot, error) {
	cp, err := c.store.GetLatest(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("resume %s: %w", sessionID, err)
	}

	st := cp.State
	if len(patch) > 0 {
		st.Apply(session.Update{Messages: patch})
	}

	if cp.PendingStage == "" {
		if st.Phase == PhaseFinished {
			version := cp.Version
			if len(patch) > 0 {
				// Nothing will run, but the feedback still belongs in the
				// session record.
				ncp, err := c.store.Put(ctx, sessionID, st, "")
				if err != nil {
					return nil, fmt.Errorf("checkpoint session %s: %w", sessionID, err)
				}
				version = ncp.Version
			}
			return &Snapshot{SessionID: sessionID, State: st, Version: version, Done: true}, nil
		}
		return c.run(ctx, sessionID, st)
	}

	stage, ok := c.stages[cp.PendingStage]
	if !ok {
		return nil, fmt.Errorf("resume %s: checkpoint names unknown stage %q", sessionID, cp.PendingStage)
	}
	c.logger.Info("session resumed",
		zap.String("session_id", sessionID),
		zap.String("pending_stage", cp.PendingStage),
		zap.Int("from_version", cp.Version),
	)

	if err := c.runStage(ctx, sessionID, stage, st); err != nil {
		return nil, err
	}
	return c.run(ctx, sessionID, st)
}

// run drives the supervision loop until a terminal decision or an
// interrupt suspension. A checkpoint lands after every decision and every
// stage completion.
func (c *Controller) run(ctx context.Context, sessionID string, st *session.State) (*Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "Controller.run",
		trace.WithAttributes(attribute.String("session_id", sessionID)))
	defer span.End()

	for {
		decision, update, err := c.supervisor.Decide(ctx, st)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "supervisor decision failed")
			return nil, err
		}
		st.Apply(update)
		c.reporter.Decision(st.Iterations, c.supervisor.Cap(), decision.Next, decision.Reason)
		c.metrics.RecordDecision(ctx, decision.Next, decision.Terminal())

		if decision.Terminal() {
			cp, err := c.store.Put(ctx, sessionID, st, "")
			if err != nil {
				return nil, fmt.Errorf("checkpoint session %s: %w", sessionID, err)
			}
			c.logger.Info("session finished",
				zap.String("session_id", sessionID),
				zap.Int("iterations", st.Iterations),
				zap.Bool("tests_passing", st.TestsPassing),
			)
			return &Snapshot{SessionID: sessionID, State: st, Version: cp.Version, Done: true}, nil
		}

		stage, ok := c.stages[decision.Next]
		if !ok {
			return nil, fmt.Errorf("supervisor routed to unknown stage %q", decision.Next)
		}

		if _, suspend := c.interrupt[stage.Name]; suspend {
			cp, err := c.store.Put(ctx, sessionID, st, stage.Name)
			if err != nil {
				return nil, fmt.Errorf("checkpoint session %s: %w", sessionID, err)
			}
			c.metrics.RecordInterrupt(ctx, stage.Name)
			c.logger.Info("session suspended before stage",
				zap.String("session_id", sessionID),
				zap.String("stage", stage.Name),
				zap.Int("version", cp.Version),
			)
			return &Snapshot{SessionID: sessionID, State: st, PendingStage: stage.Name, Version: cp.Version}, nil
		}

		if _, err := c.store.Put(ctx, sessionID, st, ""); err != nil {
			return nil, fmt.Errorf("checkpoint session %s: %w", sessionID, err)
		}

		if err := c.runStage(ctx, sessionID, stage, st); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
}

// runStage executes one stage, merges its update, and checkpoints.
func (c *Controller) runStage(ctx context.Context, sessionID string, stage *agent.Stage, st *session.State) error {
	ctx, span := c.tracer.Start(ctx, "Controller.stage",
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.String("stage", stage.Name),
		))
	defer span.End()

	c.reporter.StageStart(stage.Name)
	start := time.Now()

	res, err := c.loop.Run(ctx, stage, st)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage failed")
		return fmt.Errorf("stage %s: %w", stage.Name, err)
	}
	st.Apply(stage.Finalize(res))

	elapsed := time.Since(start)
	c.metrics.RecordStage(ctx, stage.Name, elapsed, res.Rounds)
	c.reporter.StageDone(stage.Name, elapsed, len(res.Files))
	c.logger.Info("stage complete",
		zap.String("session_id", sessionID),
		zap.String("stage", stage.Name),
		zap.Duration("elapsed", elapsed),
		zap.Int("tool_rounds", res.Rounds),
		zap.Int("files_written", len(res.Files)),
	)

	if _, err := c.store.Put(ctx, sessionID, st, ""); err != nil {
		return fmt.Errorf("checkpoint session %s: %w", sessionID, err)
	}
	return nil
}
