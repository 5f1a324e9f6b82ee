package supervisor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/orchestrd/internal/agent"
	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

func clientReturning(content string) *llm.Client {
	backend := llm.BackendFunc(func(_ context.Context, _ llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content}, nil
	})
	return llm.NewClient(backend, llm.NewRetryer(nil), llm.ModelSelector{}, nil)
}

func clientFailing(err error) *llm.Client {
	backend := llm.BackendFunc(func(_ context.Context, _ llm.Request) (*llm.Response, error) {
		return nil, err
	})
	return llm.NewClient(backend, llm.NewRetryer(nil), llm.ModelSelector{}, nil)
}

func newSupervisorWith(client *llm.Client, cap int) *Supervisor {
	return New(client, DefaultMilestones(), agent.StageNames(), cap, nil)
}

// completeState returns a state with every milestone met.
func completeState() *session.State {
	st := session.New("task")
	st.Artifacts[session.ArtifactRequirements] = "reqs"
	st.Artifacts[session.ArtifactDesign] = "design"
	st.Artifacts[session.ArtifactMonitoring] = "monitoring"
	st.CodeFiles["main.py"] = "print('hi')"
	st.TestsPassing = true
	return st
}

func TestSupervisor_RoutesToRequestedStage(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "requirements", "reason": "nothing exists yet"}`), 12)
	st := session.New("task")

	d, update, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, agent.StageRequirements, d.Next)
	assert.False(t, d.Terminal())

	st.Apply(update)
	assert.Equal(t, 1, st.Iterations)
	assert.Equal(t, agent.StageRequirements, st.Phase)
	require.Len(t, st.Messages, 2)
	assert.Equal(t, conversation.RoleSupervisor, st.Messages[1].Role)
	assert.Contains(t, st.Messages[1].Content, "requirements")
}

func TestSupervisor_EachDecisionAddsExactlyOneIteration(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "requirements", "reason": "go"}`), 12)
	st := session.New("task")

	for i := 1; i <= 3; i++ {
		_, update, err := sup.Decide(context.Background(), st)
		require.NoError(t, err)
		st.Apply(update)
		assert.Equal(t, i, st.Iterations)
	}
}

func TestSupervisor_PrematureFinishRerouted(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "FINISH", "reason": "all done"}`), 12)
	st := session.New("task")

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)

	// Nothing is met, so the terminal verdict is overridden toward the
	// first unmet milestone's stage.
	assert.Equal(t, agent.StageRequirements, d.Next)
	assert.Contains(t, d.Reason, "requirements")
	assert.Contains(t, d.Reason, "tests passing")
}

func TestSupervisor_FinishAcceptedWhenComplete(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "FINISH", "reason": "all milestones met"}`), 12)
	st := completeState()

	d, update, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, d.Terminal())

	st.Apply(update)
	assert.Equal(t, "finished", st.Phase)
}

func TestSupervisor_MidPipelineRoutesToFirstUnmet(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "FINISH", "reason": "looks done to me"}`), 12)
	st := session.New("task")
	st.Artifacts[session.ArtifactRequirements] = "reqs"
	st.Artifacts[session.ArtifactDesign] = "design"

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, agent.StageCoding, d.Next)
}

func TestSupervisor_IterationCapForcesTerminal(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "coding", "reason": "keep going"}`), 3)
	st := session.New("task")
	st.Iterations = 2

	// Third decision: counter becomes 3, meeting the cap.
	d, update, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, d.Terminal())
	assert.Contains(t, d.Reason, "Iteration cap")
	assert.Contains(t, d.Reason, "tests passing")

	st.Apply(update)
	assert.Equal(t, 3, st.Iterations)
	assert.Equal(t, "finished", st.Phase)
}

func TestSupervisor_CapTerminalWhenCompleteOmitsUnmet(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "FINISH", "reason": "done"}`), 3)
	st := completeState()
	st.Iterations = 2

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, d.Terminal())
	assert.NotContains(t, d.Reason, "Unmet")
}

func TestSupervisor_FallbackDecodingFromProse(t *testing.T) {
	sup := newSupervisorWith(clientReturning("The design looks solid, let's move to coding now."), 12)
	st := session.New("task")
	st.Artifacts[session.ArtifactRequirements] = "reqs"
	st.Artifacts[session.ArtifactDesign] = "design"

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, agent.StageCoding, d.Next)
}

func TestSupervisor_UnparseableAnswerDegrades(t *testing.T) {
	sup := newSupervisorWith(clientReturning("qwertyuiop"), 12)
	st := completeState()

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, d.Terminal())
	assert.Contains(t, d.Reason, "Could not parse")
}

func TestSupervisor_UnknownRouteDegrades(t *testing.T) {
	sup := newSupervisorWith(clientReturning(`{"next": "deployment", "reason": "ship it"}`), 12)
	st := completeState()

	d, _, err := sup.Decide(context.Background(), st)
	require.NoError(t, err)
	assert.True(t, d.Terminal())
	assert.Contains(t, d.Reason, "deployment")
}

func TestSupervisor_BackendErrorPropagates(t *testing.T) {
	wrapped := fmt.Errorf("backend down: %w", errors.New("401 invalid api key"))
	sup := newSupervisorWith(clientFailing(wrapped), 12)
	st := session.New("task")

	_, _, err := sup.Decide(context.Background(), st)
	require.Error(t, err)
	assert.ErrorIs(t, err, wrapped)
	assert.Zero(t, st.Iterations)
}
