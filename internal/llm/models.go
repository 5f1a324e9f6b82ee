package llm

import "strings"

// Stage roles used for model selection.
const (
	RoleSupervisor   = "supervisor"
	RoleRequirements = "requirements"
	RoleSystemDesign = "system_design"
	RoleCoding       = "coding"
	RoleTesting      = "testing"
	RoleMonitoring   = "monitoring"
)

// builtinModels are the per-role defaults. Coding and system design get the
// strongest coding model; everything else a general-purpose one.
var builtinModels = map[string]string{
	RoleSupervisor:   "gpt-4o",
	RoleRequirements: "gpt-4o",
	RoleSystemDesign: "o4-mini",
	RoleCoding:       "o4-mini",
	RoleTesting:      "gpt-4o",
	RoleMonitoring:   "gpt-4o",
}

const fallbackModel = "gpt-4o"

// ModelSource says where a resolved model name came from.
type ModelSource string

const (
	SourceRole    ModelSource = "role override"
	SourceGlobal  ModelSource = "global override"
	SourceDefault ModelSource = "default"
)

// ModelSelector resolves the model for an agent role.
//
// Resolution order: per-role override, global override, built-in default.
type ModelSelector struct {
	// Global overrides the model for every role when non-empty.
	Global string

	// Roles overrides the model per role, taking precedence over Global.
	Roles map[string]string
}

// Resolve returns the effective model name for role and its source.
func (s ModelSelector) Resolve(role string) (string, ModelSource) {
	role = strings.ToLower(role)
	if m, ok := s.Roles[role]; ok && m != "" {
		return m, SourceRole
	}
	if s.Global != "" {
		return s.Global, SourceGlobal
	}
	if m, ok := builtinModels[role]; ok {
		return m, SourceDefault
	}
	return fallbackModel, SourceDefault
}

// AllRoles returns the known stage roles in pipeline order.
func AllRoles() []string {
	return []string{
		RoleSupervisor,
		RoleRequirements,
		RoleSystemDesign,
		RoleCoding,
		RoleTesting,
		RoleMonitoring,
	}
}

// IsReasoningModel reports whether a model rejects sampling temperature
// (the o-series reasoning models).
func IsReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
