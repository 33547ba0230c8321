package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/ui"
)

// loginModel is the login form, or the register form when register is set.
type loginModel struct {
	flow     *auth.Flow
	run      runFunc
	register bool

	username textinput.Model
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	spinner  spinner.Model
}

func newLoginModel(flow *auth.Flow, run runFunc, register bool) loginModel {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 150
		ti.Width = 40
		return ti
	}
	m := loginModel{
		flow:     flow,
		run:      run,
		register: register,
		username: newInput("username"),
		email:    newInput("email"),
		password: newInput("password"),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	m.username.Focus()
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

// fields returns the inputs in tab order.
func (m *loginModel) fields() []*textinput.Model {
	if m.register {
		return []*textinput.Model{&m.username, &m.email, &m.password}
	}
	return []*textinput.Model{&m.username, &m.password}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, quit
		case "ctrl+r":
			target := ui.RegisterRoute
			if m.register {
				target = ui.LoginRoute
			}
			return m, navigateTo(target)
		case "tab", "down":
			m.moveFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil
		case "enter":
			if m.focus < len(m.fields())-1 {
				m.moveFocus(1)
				return m, nil
			}
			return m.submit()
		}
	case opDoneMsg:
		if msg.op == "login" || msg.op == "register" {
			m.busy = false
		}
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	f := m.fields()[m.focus]
	*f, cmd = f.Update(msg)
	return m, cmd
}

func (m *loginModel) moveFocus(delta int) {
	fields := m.fields()
	fields[m.focus].Blur()
	m.focus = (m.focus + delta + len(fields)) % len(fields)
	fields[m.focus].Focus()
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		return m, nil
	}
	m.busy = true
	flow := m.flow
	if m.register {
		email := strings.TrimSpace(m.email.Value())
		return m, tea.Batch(m.spinner.Tick, m.run("register", func(ctx context.Context) error {
			return flow.Register(ctx, username, email, password)
		}))
	}
	return m, tea.Batch(m.spinner.Tick, m.run("login", func(ctx context.Context) error {
		return flow.Login(ctx, username, password)
	}))
}

func (m loginModel) View() string {
	title, hint := "Login", "ctrl+r: create an account"
	if m.register {
		title, hint = "Register", "ctrl+r: back to login"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🤖 Agent Chat · "+title) + "\n\n")
	labels := []string{"Username", "Password"}
	if m.register {
		labels = []string{"Username", "Email", "Password"}
	}
	for i, f := range m.fields() {
		label := mutedStyle.Render(labels[i])
		if i == m.focus {
			label = selectedStyle.Render(labels[i])
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, label, f.View()) + "\n\n")
	}
	if m.busy {
		b.WriteString(m.spinner.View() + " Signing in...\n")
	}
	b.WriteString(mutedStyle.Render("tab: next field │ enter: submit │ " + hint + " │ esc: quit"))
	return b.String()
}
