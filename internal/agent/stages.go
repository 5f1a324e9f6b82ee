package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
	"github.com/fyrsmithlabs/orchestrd/internal/tools"
)

// Stage names, in pipeline order.
const (
	StageRequirements = "requirements"
	StageSystemDesign = "system_design"
	StageCoding       = "coding"
	StageTesting      = "testing"
	StageMonitoring   = "monitoring"
)

// StageNames returns the pipeline stages in order.
func StageNames() []string {
	return []string{StageRequirements, StageSystemDesign, StageCoding, StageTesting, StageMonitoring}
}

// failureKeywords mark a validation round as failing when present in the
// testing stage's combined output.
var failureKeywords = []string{"FAILED", "ERROR", "FAILURE", "ASSERTIONERROR", "EXCEPTION"}

// Pipeline builds the five standard stages.
func Pipeline() map[string]*Stage {
	stages := []*Stage{
		requirementsStage(),
		systemDesignStage(),
		codingStage(),
		testingStage(),
		monitoringStage(),
	}
	out := make(map[string]*Stage, len(stages))
	for _, s := range stages {
		out[s.Name] = s
	}
	return out
}

func requirementsStage() *Stage {
	return &Stage{
		Name:        StageRequirements,
		Role:        llm.RoleRequirements,
		Temperature: 0.2,
		Instruction: func(_ *session.State) string {
			return requirementsPrompt
		},
		Finalize: func(res *Result) session.Update {
			return session.Update{
				Messages:  res.Messages,
				Artifacts: map[string]string{session.ArtifactRequirements: res.Content},
				Phase:     StageRequirements,
			}
		},
	}
}

func systemDesignStage() *Stage {
	return &Stage{
		Name:        StageSystemDesign,
		Role:        llm.RoleSystemDesign,
		Temperature: 0.2,
		Instruction: func(st *session.State) string {
			return fmt.Sprintf(systemDesignPrompt, orPlaceholder(st.Artifacts[session.ArtifactRequirements], "(no requirements yet)"))
		},
		Finalize: func(res *Result) session.Update {
			return session.Update{
				Messages:  res.Messages,
				Artifacts: map[string]string{session.ArtifactDesign: res.Content},
				Phase:     StageSystemDesign,
			}
		},
	}
}

func codingStage() *Stage {
	return &Stage{
		Name:        StageCoding,
		Role:        llm.RoleCoding,
		Temperature: 0,
		ToolNames:   []string{tools.ToolWriteArtifact, tools.ToolReadArtifact, tools.ToolListArtifacts},
		Instruction: func(st *session.State) string {
			failureContext := "N/A (first pass)."
			if results := st.Artifacts[session.ArtifactTestResults]; results != "" &&
				strings.Contains(strings.ToUpper(results), "FAILED") {
				failureContext = "Previous test failures:\n" + results
			}
			return fmt.Sprintf(codingPrompt,
				orPlaceholder(st.Artifacts[session.ArtifactDesign], "(no design yet)"),
				failureContext,
				orPlaceholder(st.Prompt, "(not available)"),
			)
		},
		Finalize: func(res *Result) session.Update {
			return session.Update{
				Messages:  res.Messages,
				CodeFiles: res.Files,
				Phase:     StageCoding,
			}
		},
	}
}

func testingStage() *Stage {
	return &Stage{
		Name:        StageTesting,
		Role:        llm.RoleTesting,
		Temperature: 0,
		ToolNames: []string{
			tools.ToolWriteArtifact, tools.ToolReadArtifact, tools.ToolListArtifacts,
			tools.ToolRunTests, tools.ToolRunCommand,
		},
		Instruction: func(st *session.State) string {
			return fmt.Sprintf(testingPrompt,
				orPlaceholder(st.Artifacts[session.ArtifactDesign], "(no design)"),
				summarizeCodeFiles(st.CodeFiles, 500),
			)
		},
		Finalize: func(res *Result) session.Update {
			combined := res.Content + "\n" + strings.Join(res.ToolOutputs, "\n")
			passing := detectPassing(combined)
			return session.Update{
				Messages:     res.Messages,
				Artifacts:    map[string]string{session.ArtifactTestResults: res.Content},
				CodeFiles:    res.Files,
				TestsPassing: session.Bool(passing),
				Phase:        StageTesting,
			}
		},
	}
}

func monitoringStage() *Stage {
	return &Stage{
		Name:        StageMonitoring,
		Role:        llm.RoleMonitoring,
		Temperature: 0.2,
		ToolNames:   []string{tools.ToolWriteArtifact, tools.ToolReadArtifact, tools.ToolListArtifacts},
		Instruction: func(st *session.State) string {
			return fmt.Sprintf(monitoringPrompt,
				orPlaceholder(st.Artifacts[session.ArtifactDesign], "(no design)"),
				listCodeFiles(st.CodeFiles),
			)
		},
		Finalize: func(res *Result) session.Update {
			return session.Update{
				Messages:  res.Messages,
				Artifacts: map[string]string{session.ArtifactMonitoring: res.Content},
				CodeFiles: res.Files,
				Phase:     StageMonitoring,
			}
		},
	}
}

// detectPassing reports whether output carries no failure markers.
func detectPassing(output string) bool {
	upper := strings.ToUpper(output)
	for _, kw := range failureKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return true
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// summarizeCodeFiles renders each file with a content preview capped at
// previewLen bytes.
func summarizeCodeFiles(files map[string]string, previewLen int) string {
	if len(files) == 0 {
		return "(no code files)"
	}
	names := sortedKeys(files)
	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		preview := files[name]
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		fmt.Fprintf(&sb, "### %s\n```\n%s\n```", name, preview)
	}
	return sb.String()
}

func listCodeFiles(files map[string]string) string {
	if len(files) == 0 {
		return "(no code files)"
	}
	names := sortedKeys(files)
	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- " + name)
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
