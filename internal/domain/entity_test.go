package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentDescriptionOr(t *testing.T) {
	blank := "   "
	set := "Answers tax questions"

	tests := []struct {
		name string
		desc *string
		want string
	}{
		{"missing", nil, "N/A"},
		{"blank", &blank, "N/A"},
		{"set", &set, "Answers tax questions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Agent{Description: tt.desc}
			assert.Equal(t, tt.want, a.DescriptionOr("N/A"))
		})
	}
}

func TestAgentInputNormalize(t *testing.T) {
	in := AgentInput{Name: "  Helper ", SystemPrompt: "  "}.Normalize()

	assert.Equal(t, "Helper", in.Name)
	assert.Equal(t, DefaultSystemPrompt, in.SystemPrompt)

	in = AgentInput{Name: "x", SystemPrompt: "Be terse."}.Normalize()
	assert.Equal(t, "Be terse.", in.SystemPrompt)
}

func TestAgentDecodesNullDescription(t *testing.T) {
	var a Agent
	err := json.Unmarshal([]byte(`{"id":7,"name":"Bot","description":null,"system_prompt":"p"}`), &a)
	require.NoError(t, err)

	assert.Equal(t, 7, a.ID)
	assert.Nil(t, a.Description)
	assert.Equal(t, "No description", a.DescriptionOr("No description"))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
}

func TestCredentialsValid(t *testing.T) {
	assert.False(t, Credentials{}.Valid())
	assert.True(t, Credentials{Access: "tok"}.Valid())
}
