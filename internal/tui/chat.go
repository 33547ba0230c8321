package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/render"
	strs "github.com/joss/agentchat/internal/strings"
	"github.com/joss/agentchat/internal/ui"
)

type chatMode int

const (
	modeChat chatMode = iota
	modeFilePicker
)

// chatModel is the conversation view for one agent.
type chatModel struct {
	session *chat.Session
	flow    *auth.Flow
	run     runFunc
	workDir string

	info      chat.AgentInfo
	entries   []chat.Entry
	pendingID string
	files     chat.FileList
	sending   bool
	showFiles bool
	showInfo  bool
	notice    string

	viewport   viewport.Model
	input      textarea.Model
	spinner    spinner.Model
	filePicker *FilePicker
	mode       chatMode
	styles     render.Styles
	ready      bool
	width      int
	height     int
}

func newChatModel(sess *chat.Session, flow *auth.Flow, run runFunc, workDir string) chatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textarea.New()
	ti.Placeholder = "Type your message... (Enter to send, /help for commands)"
	ti.CharLimit = 4000
	ti.ShowLineNumbers = false
	ti.SetWidth(80)
	ti.SetHeight(3)
	ti.Focus()

	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	return chatModel{
		session: sess,
		flow:    flow,
		run:     run,
		workDir: workDir,
		input:   ti,
		spinner: s,
		styles:  render.DefaultStyles(),
		info:    chat.AgentInfo{Title: fmt.Sprintf("Chat with agent #%d", sess.AgentID())},
	}
}

func (m chatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	if m.mode == modeFilePicker {
		if key, ok := msg.(tea.KeyMsg); ok {
			return m.updateFilePicker(key)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case agentInfoMsg:
		m.info = chat.AgentInfo(msg)
		return m, nil
	case messagesMsg:
		m.entries = append([]chat.Entry(nil), msg...)
		m.pendingID = ""
		return m.refresh(), nil
	case appendMsg:
		m.entries = append(m.entries, chat.Entry(msg))
		return m.refresh(), nil
	case pendingMsg:
		m.pendingID = string(msg)
		return m.refresh(), m.spinner.Tick
	case replaceMsg:
		if m.pendingID == msg.id {
			m.pendingID = ""
		}
		m.entries = append(m.entries, msg.entry)
		return m.refresh(), nil
	case removeMsg:
		if m.pendingID == string(msg) {
			m.pendingID = ""
		}
		return m.refresh(), nil
	case inputMsg:
		m.sending = !bool(msg)
		if m.sending {
			m.input.Blur()
			return m, nil
		}
		cmd := m.input.Focus()
		return m, cmd
	case filesMsg:
		m.files = chat.FileList(msg)
		return m, nil
	case spinner.TickMsg:
		if m.pendingID == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m.refresh(), cmd
	}

	var cmds []tea.Cmd
	if !m.sending {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) handleKeyMsg(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, navigateTo(ui.AgentsRoute)
	case "enter":
		return m.handleEnterKey()
	case "alt+enter", "ctrl+j":
		if !m.sending {
			m.input.InsertString("\n")
		}
		return m, nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "up", "down":
		if m.sending {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	if m.sending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) handleEnterKey() (chatModel, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	text := m.input.Value()
	m.notice = ""
	if isSlashCommand(text) {
		m.input.Reset()
		return executeSlashCommand(m, text)
	}
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()
	sess := m.session
	return m, m.run("send_message", func(ctx context.Context) error {
		return sess.SendMessage(ctx, text)
	})
}

func (m chatModel) updateFilePicker(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeChat
		return m, nil
	case tea.KeyEnter:
		m.mode = modeChat
		if path, ok := m.filePicker.SelectedItem(); ok {
			return m, m.upload(path)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)
	return m, cmd
}

// upload sends the file at path to the agent.
func (m chatModel) upload(path string) tea.Cmd {
	sess := m.session
	return m.run("upload", func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return sess.UploadFile(ctx, filepath.Base(path), f)
	})
}

func (m chatModel) handleWindowSize(msg tea.WindowSizeMsg) chatModel {
	m.width, m.height = msg.Width, msg.Height
	vpHeight := msg.Height - chatChromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(msg.Width - 4)
	if m.filePicker != nil {
		m.filePicker.SetSize(msg.Width-4, 10)
	}
	return m.refresh()
}

// chatChromeHeight is the space taken by header, status line and input box.
const chatChromeHeight = 10

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m chatModel) refresh() chatModel {
	if !m.ready {
		return m
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	return m
}

func (m chatModel) renderTranscript() string {
	width := m.width - 4
	if width < 10 {
		width = 0
	}
	var parts []string
	for _, e := range m.entries {
		label := userStyle.Render("You")
		if e.Message.Role == domain.RoleAssistant {
			label = assistantStyle.Render("Agent")
		}
		parts = append(parts, label+"\n"+render.Terminal(e.Doc, m.styles, width))
	}
	if m.pendingID != "" {
		parts = append(parts, assistantStyle.Render("Agent")+"\n"+m.spinner.View()+mutedStyle.Render(" typing..."))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("No messages yet. Say hello!")
	}
	return strings.Join(parts, "\n\n")
}

func (m chatModel) View() string {
	if !m.ready {
		return fmt.Sprintf("\n  %s Loading chat...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🤖 "+m.info.Title) + "\n")
	if m.showInfo {
		b.WriteString(mutedStyle.Render("Name: ") + m.info.Name + "\n")
		b.WriteString(mutedStyle.Render("Description: ") + m.info.Description + "\n")
		b.WriteString(mutedStyle.Render("System Prompt: ") + strs.WordWrap(m.info.SystemPrompt, max(m.width-16, 0)) + "\n")
	}
	if m.showFiles {
		b.WriteString(mutedStyle.Render("Uploaded Files") + "\n")
		for _, line := range m.files.Lines() {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString(m.viewport.View() + "\n")
	if m.notice != "" {
		b.WriteString(mutedStyle.Render(m.notice) + "\n")
	}
	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(m.renderInputArea())
	return b.String()
}

func (m chatModel) renderStatus() string {
	parts := []string{fmt.Sprintf("Files:%d", len(m.files.Files))}
	if m.sending {
		parts = append(parts, "Sending...", "↑↓/pgup/pgdown: scroll")
	} else {
		parts = append(parts, "Enter: send │ /help │ /upload │ Esc: back")
	}
	return statusStyle.Width(max(m.width, 0)).Render(strings.Join(parts, " │ "))
}

func (m chatModel) renderInputArea() string {
	if m.mode == modeFilePicker && m.filePicker != nil {
		pickerStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1).
			Width(max(m.width-4, 20))
		return pickerStyle.Render(m.filePicker.View()) + "\n" +
			mutedStyle.Render("  type: filter │ ↑↓: navigate │ Enter: upload │ Esc: cancel")
	}
	if m.sending {
		return fmt.Sprintf("  %s Waiting for reply...", m.spinner.View())
	}
	style := inputBorderStyle
	if m.input.Focused() {
		style = focusedInputStyle
	}
	return style.Width(max(m.width-4, 20)).Render(m.input.View())
}
