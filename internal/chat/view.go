package chat

import (
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/render"
	"github.com/joss/agentchat/internal/ui"
)

// Placeholder and banner texts.
const (
	NoFiles          = "No files uploaded"
	DescriptionEmpty = "N/A"

	MsgHistoryFailed = "Failed to load chat history"
	MsgAgentFailed   = "Failed to load agent info"
	MsgFilesFailed   = "Failed to load files"
	MsgSendFailed    = "Failed to send message"
	MsgUploadOK      = "File uploaded successfully!"
	MsgUploadFailed  = "Failed to upload file"
	MsgNetwork       = "Network error. Please try again."
)

// Entry is one rendered message.
type Entry struct {
	Message domain.ChatMessage
	Doc     render.Document
}

// HTML returns the entry as sanitized markup.
func (e Entry) HTML() string {
	return render.HTML(e.Doc)
}

// userEntry shows what the user typed verbatim.
func userEntry(m domain.ChatMessage) Entry {
	return Entry{Message: m, Doc: render.Literal(m.Content)}
}

// entryFor renders a stored message. History is always formatted.
func entryFor(m domain.ChatMessage) Entry {
	return Entry{Message: m, Doc: render.Parse(m.Content)}
}

// AgentInfo is the chat page header.
type AgentInfo struct {
	Title        string
	Name         string
	Description  string
	SystemPrompt string
}

func agentInfo(a domain.Agent) AgentInfo {
	return AgentInfo{
		Title:        "Chat with " + a.Name,
		Name:         a.Name,
		Description:  a.DescriptionOr(DescriptionEmpty),
		SystemPrompt: a.SystemPrompt,
	}
}

// FileList is the file panel.
type FileList struct {
	Files []domain.UploadedFile
}

// Lines returns one line per file, or the empty placeholder.
func (l FileList) Lines() []string {
	if len(l.Files) == 0 {
		return []string{NoFiles}
	}
	out := make([]string, len(l.Files))
	for i, f := range l.Files {
		out[i] = "📄 " + f.Filename
	}
	return out
}

// View receives every visible change a Session makes. Calls arrive on the
// goroutine that invoked the Session method.
type View interface {
	ui.Navigator
	ui.Notifier

	ShowAgent(AgentInfo)
	// ShowMessages replaces the whole message list.
	ShowMessages([]Entry)
	AppendMessage(Entry)
	ShowPending(id string)
	ReplacePending(id string, e Entry)
	RemovePending(id string)
	SetInputEnabled(bool)
	ShowFiles(FileList)
}
