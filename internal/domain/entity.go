// Package domain defines the records exchanged with the agent backend.
// They are plain values: the client fetches them and never mutates them locally.
package domain

import (
	"strings"
	"time"
)

// DefaultSystemPrompt is used when an agent is created without one.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// Agent is a configured AI persona the user chats with.
type Agent struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	SystemPrompt string     `json:"system_prompt"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// DescriptionOr returns the description, or fallback when it is missing or blank.
func (a Agent) DescriptionOr(fallback string) string {
	if a.Description == nil || strings.TrimSpace(*a.Description) == "" {
		return fallback
	}
	return *a.Description
}

// AgentInput is an Agent minus its server-assigned fields.
type AgentInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// Normalize trims the name and fills in the default system prompt.
func (in AgentInput) Normalize() AgentInput {
	in.Name = strings.TrimSpace(in.Name)
	if strings.TrimSpace(in.SystemPrompt) == "" {
		in.SystemPrompt = DefaultSystemPrompt
	}
	return in
}

// UploadedFile is a read-only listing entry; the backend owns its lifecycle.
type UploadedFile struct {
	ID         int        `json:"id,omitempty"`
	Filename   string     `json:"filename"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// User is the account summary returned by login and register.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Credentials are the tokens handed out on login.
type Credentials struct {
	Access   string
	Refresh  string
	Username string
}

// Valid reports whether an access token is present.
func (c Credentials) Valid() bool {
	return c.Access != ""
}
