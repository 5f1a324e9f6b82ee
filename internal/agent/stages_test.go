package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

func TestPipeline_ContainsAllStages(t *testing.T) {
	stages := Pipeline()
	require.Len(t, stages, len(StageNames()))
	for _, name := range StageNames() {
		s, ok := stages[name]
		require.True(t, ok, "missing stage %s", name)
		assert.Equal(t, name, s.Name)
		assert.NotNil(t, s.Instruction)
		assert.NotNil(t, s.Finalize)
	}
}

func TestRequirementsStage_FinalizeStoresArtifact(t *testing.T) {
	s := Pipeline()[StageRequirements]
	update := s.Finalize(&Result{Content: "the requirements"})
	assert.Equal(t, "the requirements", update.Artifacts[session.ArtifactRequirements])
	assert.Equal(t, StageRequirements, update.Phase)
	assert.Nil(t, update.TestsPassing)
}

func TestCodingStage_InstructionCarriesTestFailures(t *testing.T) {
	s := Pipeline()[StageCoding]

	st := session.New("build it")
	st.Artifacts[session.ArtifactDesign] = "the design"

	first := s.Instruction(st)
	assert.Contains(t, first, "the design")
	assert.NotContains(t, first, "Previous test failures")

	st.Artifacts[session.ArtifactTestResults] = "2 passed, 1 FAILED: test_auth"
	retry := s.Instruction(st)
	assert.Contains(t, retry, "Previous test failures")
	assert.Contains(t, retry, "test_auth")
}

func TestCodingStage_FinalizeStoresFiles(t *testing.T) {
	s := Pipeline()[StageCoding]
	update := s.Finalize(&Result{Files: map[string]string{"app.py": "code"}})
	assert.Equal(t, "code", update.CodeFiles["app.py"])
}

func TestTestingStage_FinalizeSetsPassing(t *testing.T) {
	s := Pipeline()[StageTesting]

	pass := s.Finalize(&Result{Content: "5 passed in 0.3s"})
	require.NotNil(t, pass.TestsPassing)
	assert.True(t, *pass.TestsPassing)
	assert.Equal(t, "5 passed in 0.3s", pass.Artifacts[session.ArtifactTestResults])

	// Failure markers in tool output flip the flag even when the
	// summary text looks clean.
	fail := s.Finalize(&Result{
		Content:     "ran the suite",
		ToolOutputs: []string{"test_api.py::test_auth FAILED"},
	})
	require.NotNil(t, fail.TestsPassing)
	assert.False(t, *fail.TestsPassing)
}

func TestDetectPassing(t *testing.T) {
	assert.True(t, detectPassing("12 passed in 1.02s"))
	assert.True(t, detectPassing(""))
	assert.False(t, detectPassing("1 failed, 11 passed"))
	assert.False(t, detectPassing("AssertionError: expected 200"))
	assert.False(t, detectPassing("unhandled exception in worker"))
}

func TestSummarizeCodeFiles(t *testing.T) {
	assert.Equal(t, "(no code files)", summarizeCodeFiles(nil, 100))

	long := strings.Repeat("x", 600)
	got := summarizeCodeFiles(map[string]string{"b.py": "bbb", "a.py": long}, 500)

	// sorted by name, long content truncated
	assert.Less(t, strings.Index(got, "a.py"), strings.Index(got, "b.py"))
	assert.Contains(t, got, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, got, strings.Repeat("x", 501))
}
