package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/directory"
	"github.com/joss/agentchat/internal/domain"
)

type agentsMode int

const (
	modeList agentsMode = iota
	modeCreate
	modeConfirm
)

// agentsModel is the agent list with its create form and delete prompt.
type agentsModel struct {
	dir  *directory.Directory
	flow *auth.Flow
	run  runFunc

	listing directory.Listing
	loaded  bool
	cursor  int
	mode    agentsMode
	target  int // agent awaiting delete confirmation

	form      []textinput.Model
	formFocus int
	width     int
}

func newAgentsModel(dir *directory.Directory, flow *auth.Flow, run runFunc) agentsModel {
	return agentsModel{dir: dir, flow: flow, run: run}
}

func newAgentForm() []textinput.Model {
	placeholders := []string{"Name", "Description (optional)", "System prompt"}
	form := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.CharLimit = 2000
		ti.Width = 60
		form[i] = ti
	}
	form[2].SetValue(domain.DefaultSystemPrompt)
	form[0].Focus()
	return form
}

func (m agentsModel) Update(msg tea.Msg) (agentsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case listingMsg:
		m.listing = directory.Listing(msg)
		m.loaded = true
		if m.cursor >= len(m.listing.Cards) {
			m.cursor = max(0, len(m.listing.Cards)-1)
		}
		return m, nil
	case opDoneMsg:
		if msg.op == "create_agent" && msg.err == nil {
			m.mode = modeList
			m.form = nil
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeCreate:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m agentsModel) updateList(msg tea.KeyMsg) (agentsModel, tea.Cmd) {
	dir := m.dir
	switch msg.String() {
	case "q", "esc":
		return m, quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.listing.Cards)-1 {
			m.cursor++
		}
	case "enter":
		if card, ok := m.selected(); ok {
			id := card.ID
			return m, m.run("open_agent", func(context.Context) error {
				dir.Open(id)
				return nil
			})
		}
	case "n":
		m.mode = modeCreate
		m.form = newAgentForm()
		m.formFocus = 0
		return m, textinput.Blink
	case "d":
		if card, ok := m.selected(); ok {
			m.mode = modeConfirm
			m.target = card.ID
		}
	case "r":
		return m, m.run("load_agents", dir.Load)
	case "x":
		flow := m.flow
		return m, m.run("logout", flow.Logout)
	}
	return m, nil
}

func (m agentsModel) updateConfirm(msg tea.KeyMsg) (agentsModel, tea.Cmd) {
	var yes bool
	switch msg.String() {
	case "y", "Y":
		yes = true
	case "n", "N", "esc":
	default:
		return m, nil
	}
	m.mode = modeList
	dir, id := m.dir, m.target
	return m, m.run("delete_agent", func(ctx context.Context) error {
		err := dir.Delete(ctx, id, directory.ConfirmFunc(func(string) bool { return yes }))
		if isCanceled(err) {
			return nil
		}
		return err
	})
}

func (m agentsModel) updateForm(msg tea.KeyMsg) (agentsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.form = nil
		return m, nil
	case "tab", "down":
		m.focusField(m.formFocus + 1)
		return m, nil
	case "shift+tab", "up":
		m.focusField(m.formFocus - 1)
		return m, nil
	case "enter", "ctrl+s":
		if msg.String() == "enter" && m.formFocus < len(m.form)-1 {
			m.focusField(m.formFocus + 1)
			return m, nil
		}
		in := domain.AgentInput{
			Name:         m.form[0].Value(),
			Description:  m.form[1].Value(),
			SystemPrompt: m.form[2].Value(),
		}
		dir := m.dir
		return m, m.run("create_agent", func(ctx context.Context) error {
			_, err := dir.Create(ctx, in)
			return err
		})
	}
	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

func (m *agentsModel) focusField(i int) {
	n := len(m.form)
	m.form[m.formFocus].Blur()
	m.formFocus = (i + n) % n
	m.form[m.formFocus].Focus()
}

func (m agentsModel) selected() (directory.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.listing.Cards) {
		return directory.Card{}, false
	}
	return m.listing.Cards[m.cursor], true
}

func (m agentsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🤖 My Agents") + "\n\n")

	switch {
	case !m.loaded:
		b.WriteString(mutedStyle.Render("Loading agents...") + "\n")
	case m.listing.Empty():
		b.WriteString(mutedStyle.Render(directory.EmptyText) + "\n")
	default:
		for i, c := range m.listing.Cards {
			style := cardStyle
			name := c.Name
			if i == m.cursor {
				style = selectedCardStyle
				name = selectedStyle.Render(name)
			}
			body := fmt.Sprintf("%s\n%s\n%s %s", name, c.Description, mutedStyle.Render("System Prompt:"), c.PromptPreview)
			if m.width > 8 {
				style = style.Width(m.width - 4)
			}
			b.WriteString(style.Render(body) + "\n")
		}
	}

	b.WriteString("\n")
	switch m.mode {
	case modeCreate:
		b.WriteString(titleStyle.Render("Create New Agent") + "\n")
		for _, f := range m.form {
			b.WriteString(f.View() + "\n")
		}
		b.WriteString(mutedStyle.Render("tab: next field │ ctrl+s: create │ esc: cancel"))
	case modeConfirm:
		b.WriteString(errorStyle.Render(directory.ConfirmDelete) + " " + mutedStyle.Render("[y/N]"))
	default:
		b.WriteString(statusStyle.Render("enter: chat │ n: new │ d: delete │ r: reload │ x: logout │ q: quit"))
	}
	return b.String()
}
