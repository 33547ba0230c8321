package selftest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/domain"
)

// CredentialLoader reads the stored credentials.
type CredentialLoader interface {
	Load(ctx context.Context) (domain.Credentials, error)
}

// Options are the collaborators a full check inspects.
type Options struct {
	Env         *config.Env
	API         Prober
	Store       Pinger
	StorePath   string
	Credentials CredentialLoader
	// IsTerminal reports whether stdin is interactive.
	IsTerminal func() bool
}

// Environment describes the runtime environment.
type Environment struct {
	HasTTY   bool
	APIURL   string
	Health   *HealthStatus
	LoggedIn bool
	Username string
	Warnings []string
	Errors   []string
}

// Check performs a complete environment validation.
func Check(ctx context.Context, opts Options) *Environment {
	env := &Environment{}
	if opts.IsTerminal != nil {
		env.HasTTY = opts.IsTerminal()
	}
	if !env.HasTTY {
		env.Warnings = append(env.Warnings, "stdin is not a terminal; the TUI and password prompts are unavailable")
	}

	if opts.Env != nil {
		env.APIURL = opts.Env.APIURL
		if err := opts.Env.Validate(); err != nil {
			env.Errors = append(env.Errors, err.Error())
		}
	}

	var probes []Probe
	if opts.API != nil {
		probes = append(probes, APIProbe(opts.API))
	}
	if opts.Store != nil {
		probes = append(probes, PingProbe("credentials", opts.StorePath, opts.Store))
	}
	env.Health = CheckHealth(ctx, probes...)
	for _, name := range env.componentNames() {
		c := env.Health.Components[name]
		switch c.Status {
		case "error":
			env.Errors = append(env.Errors, fmt.Sprintf("%s: %s", name, c.Error))
		case "degraded":
			env.Warnings = append(env.Warnings, fmt.Sprintf("%s: %s", name, c.Detail))
		}
	}

	if opts.Credentials != nil {
		creds, err := opts.Credentials.Load(ctx)
		if err != nil {
			env.Errors = append(env.Errors, fmt.Sprintf("read credentials: %v", err))
		} else {
			env.LoggedIn = creds.Valid()
			env.Username = creds.Username
		}
	}
	return env
}

func (e *Environment) componentNames() []string {
	if e.Health == nil {
		return nil
	}
	names := make([]string, 0, len(e.Health.Components))
	for name := range e.Health.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsHealthy returns true if agentchat can reach its backend and store.
func (e *Environment) IsHealthy() bool {
	return len(e.Errors) == 0
}

// Summary returns a human-readable summary.
func (e *Environment) Summary() string {
	var sb strings.Builder

	sb.WriteString("AGENTCHAT ENVIRONMENT CHECK\n")
	sb.WriteString(strings.Repeat("─", 40) + "\n")

	ttyStatus := "No (CLI commands only)"
	if e.HasTTY {
		ttyStatus = "Yes (interactive mode available)"
	}
	sb.WriteString(fmt.Sprintf("TTY:          %s\n", ttyStatus))
	sb.WriteString(fmt.Sprintf("API URL:      %s\n", e.APIURL))

	for _, name := range e.componentNames() {
		c := e.Health.Components[name]
		line := strings.ToUpper(c.Status)
		if c.Detail != "" {
			line += " (" + c.Detail + ")"
		}
		sb.WriteString(fmt.Sprintf("%-13s %s\n", strings.ToUpper(name[:1])+name[1:]+":", line))
	}

	login := "No"
	if e.LoggedIn {
		login = "Yes"
		if e.Username != "" {
			login += " as " + e.Username
		}
	}
	sb.WriteString(fmt.Sprintf("Logged in:    %s\n", login))

	if len(e.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range e.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", w))
		}
	}
	if len(e.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, err := range e.Errors {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", err))
		}
	}

	sb.WriteString("\n")
	if e.IsHealthy() {
		sb.WriteString("Status: HEALTHY\n")
	} else {
		sb.WriteString("Status: UNHEALTHY - fix errors above\n")
	}
	return sb.String()
}

// QuickCheck returns a one-line status suitable for non-verbose output.
func (e *Environment) QuickCheck() string {
	if !e.IsHealthy() {
		return fmt.Sprintf("Environment unhealthy: %s", strings.Join(e.Errors, "; "))
	}
	mode := "cli"
	if e.HasTTY {
		mode = "interactive"
	}
	user := "logged-out"
	if e.LoggedIn {
		user = "user:" + e.Username
	}
	return fmt.Sprintf("api:%s mode:%s %s", e.APIURL, mode, user)
}
