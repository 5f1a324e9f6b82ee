package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelSelector_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		selector   ModelSelector
		role       string
		wantModel  string
		wantSource ModelSource
	}{
		{
			name:       "builtin default",
			selector:   ModelSelector{},
			role:       RoleRequirements,
			wantModel:  "gpt-4o",
			wantSource: SourceDefault,
		},
		{
			name:       "coding gets reasoning model by default",
			selector:   ModelSelector{},
			role:       RoleCoding,
			wantModel:  "o4-mini",
			wantSource: SourceDefault,
		},
		{
			name:       "global override beats builtin",
			selector:   ModelSelector{Global: "gpt-4o-mini"},
			role:       RoleCoding,
			wantModel:  "gpt-4o-mini",
			wantSource: SourceGlobal,
		},
		{
			name:       "role override beats global",
			selector:   ModelSelector{Global: "gpt-4o-mini", Roles: map[string]string{RoleCoding: "o3"}},
			role:       RoleCoding,
			wantModel:  "o3",
			wantSource: SourceRole,
		},
		{
			name:       "role override is case-insensitive on role",
			selector:   ModelSelector{Roles: map[string]string{RoleCoding: "o3"}},
			role:       "CODING",
			wantModel:  "o3",
			wantSource: SourceRole,
		},
		{
			name:       "empty role override falls through",
			selector:   ModelSelector{Roles: map[string]string{RoleCoding: ""}},
			role:       RoleCoding,
			wantModel:  "o4-mini",
			wantSource: SourceDefault,
		},
		{
			name:       "unknown role falls back",
			selector:   ModelSelector{},
			role:       "reviewer",
			wantModel:  "gpt-4o",
			wantSource: SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, source := tt.selector.Resolve(tt.role)
			assert.Equal(t, tt.wantModel, model)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, IsReasoningModel("o4-mini"))
	assert.True(t, IsReasoningModel("o3"))
	assert.True(t, IsReasoningModel("o1-preview"))
	assert.False(t, IsReasoningModel("gpt-4o"))
	assert.False(t, IsReasoningModel("gpt-4o-mini"))
}
