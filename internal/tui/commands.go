package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/ui"
)

// SlashCommand is a chat view command typed as "/name args".
type SlashCommand struct {
	Name        string
	Description string
	Handler     func(m chatModel, args string) (chatModel, tea.Cmd)
}

// builtinCommands returns all available slash commands
func builtinCommands() map[string]SlashCommand {
	return map[string]SlashCommand{
		"help": {
			Name:        "help",
			Description: "Show available commands",
			Handler:     cmdHelp,
		},
		"files": {
			Name:        "files",
			Description: "Show or hide the uploaded files and refresh them",
			Handler:     cmdFiles,
		},
		"upload": {
			Name:        "upload",
			Description: "Upload a document (opens a picker without a path)",
			Handler:     cmdUpload,
		},
		"info": {
			Name:        "info",
			Description: "Show or hide the agent details",
			Handler:     cmdInfo,
		},
		"reload": {
			Name:        "reload",
			Description: "Reload the chat history",
			Handler:     cmdReload,
		},
		"back": {
			Name:        "back",
			Description: "Return to the agent list",
			Handler:     cmdBack,
		},
		"logout": {
			Name:        "logout",
			Description: "Forget the stored credentials",
			Handler:     cmdLogout,
		},
	}
}

// isSlashCommand checks if input starts with /
func isSlashCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// parseSlashCommand splits "/name args" into its lower-cased name and args.
func parseSlashCommand(input string) (name, args string) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "/")
	name, args, _ = strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// executeSlashCommand parses and runs a slash command
func executeSlashCommand(m chatModel, input string) (chatModel, tea.Cmd) {
	name, args := parseSlashCommand(input)
	if cmd, ok := builtinCommands()[name]; ok {
		return cmd.Handler(m, args)
	}
	m.notice = fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", name)
	return m, nil
}

func cmdHelp(m chatModel, _ string) (chatModel, tea.Cmd) {
	cmds := builtinCommands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  /%-7s %s\n", name, cmds[name].Description))
	}
	sb.WriteString("\nShortcuts:\n")
	sb.WriteString("  Alt+Enter - Insert newline\n")
	sb.WriteString("  PgUp/PgDn - Scroll\n")
	sb.WriteString("  Esc       - Back to agents")
	m.notice = sb.String()
	return m, nil
}

func cmdFiles(m chatModel, _ string) (chatModel, tea.Cmd) {
	m.showFiles = !m.showFiles
	if !m.showFiles {
		return m, nil
	}
	return m, m.run("load_files", m.session.LoadAgentFiles)
}

func cmdUpload(m chatModel, args string) (chatModel, tea.Cmd) {
	if args != "" {
		path := args
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.workDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			m.notice = fmt.Sprintf("Cannot read %s: %v", args, err)
			return m, nil
		}
		if !chat.Uploadable(path) {
			m.notice = "Unsupported file type. Allowed: " + strings.Join(chat.UploadExtensions, ", ")
			return m, nil
		}
		return m, m.upload(path)
	}

	if m.filePicker == nil {
		m.filePicker = NewFilePicker(m.workDir, max(m.width-4, 20), 10)
	}
	if err := m.filePicker.LoadFiles(); err != nil {
		m.notice = fmt.Sprintf("Cannot list files: %v", err)
		return m, nil
	}
	m.mode = modeFilePicker
	return m, nil
}

func cmdInfo(m chatModel, _ string) (chatModel, tea.Cmd) {
	m.showInfo = !m.showInfo
	return m, nil
}

func cmdReload(m chatModel, _ string) (chatModel, tea.Cmd) {
	return m, m.run("load_history", m.session.LoadHistory)
}

func cmdBack(m chatModel, _ string) (chatModel, tea.Cmd) {
	return m, navigateTo(ui.AgentsRoute)
}

func cmdLogout(m chatModel, _ string) (chatModel, tea.Cmd) {
	return m, m.run("logout", m.flow.Logout)
}
