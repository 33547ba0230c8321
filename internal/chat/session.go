// Package chat drives one conversation with an agent: history, the optimistic
// send lifecycle, agent info and the agent's files.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/ui"
)

var (
	// ErrEmptyMessage is returned for a blank submit. Nothing is sent or shown.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy is returned when a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrNoAgent is returned by Open when no agent was selected.
	ErrNoAgent = errors.New("no agent selected")
)

// State is the send lifecycle.
type State int

const (
	Idle State = iota
	Sending
)

func (s State) String() string {
	if s == Sending {
		return "sending"
	}
	return "idle"
}

// Outcome is how the last send ended.
type Outcome int

const (
	None Outcome = iota
	Rendered
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return "none"
}

// Client is the part of api.Client a Session uses.
type Client interface {
	GetAgent(ctx context.Context, id int) (*domain.Agent, error)
	ChatHistory(ctx context.Context, agentID int) ([]domain.ChatMessage, error)
	SendChat(ctx context.Context, agentID int, message string) (string, error)
	ListFiles(ctx context.Context, agentID int) ([]domain.UploadedFile, error)
	UploadFile(ctx context.Context, agentID int, filename string, r io.Reader) (*domain.UploadedFile, error)
}

// Config wires a Session. AgentID, Client and View are required.
type Config struct {
	AgentID int
	Client  Client
	View    View
	Logger  *logging.Logger
	// NewID generates pending placeholder ids. Defaults to ULIDs.
	NewID func() string
}

// Session is the state of one open chat view.
type Session struct {
	agentID int
	client  Client
	view    View
	log     *logging.Logger
	newID   func() string

	mu       sync.Mutex
	state    State
	outcome  Outcome
	messages []domain.ChatMessage
	agent    *domain.Agent
	files    []domain.UploadedFile
}

// New creates a Session.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = logging.New("chat")
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &Session{
		agentID: cfg.AgentID,
		client:  cfg.Client,
		view:    cfg.View,
		log:     log.With("agent_id", cfg.AgentID),
		newID:   newID,
	}
}

// AgentID returns the agent this session talks to.
func (s *Session) AgentID() int { return s.agentID }

// State returns the current send state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns how the most recent send ended.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Messages returns a snapshot of the rendered message sequence, excluding
// the pending placeholder.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// Agent returns the loaded agent, or nil before LoadAgentInfo succeeds.
func (s *Session) Agent() *domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}

// Files returns the last loaded file list.
func (s *Session) Files() []domain.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UploadedFile(nil), s.files...)
}

// Open loads agent info, history and files in that order. It stops at the
// first 401; other failures are reported and loading continues.
func (s *Session) Open(ctx context.Context) error {
	if s.agentID <= 0 {
		s.view.Navigate(ui.AgentsRoute)
		return ErrNoAgent
	}
	var errs []error
	for _, load := range []func(context.Context) error{s.LoadAgentInfo, s.LoadHistory, s.LoadAgentFiles} {
		err := load(ctx)
		if api.IsUnauthenticated(err) {
			return err
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadAgentInfo fetches the agent and shows the header.
func (s *Session) LoadAgentInfo(ctx context.Context) error {
	agent, err := s.client.GetAgent(ctx, s.agentID)
	if err != nil {
		return s.fail("load_agent", err, MsgAgentFailed)
	}
	s.mu.Lock()
	s.agent = agent
	s.mu.Unlock()
	s.view.ShowAgent(agentInfo(*agent))
	return nil
}

// LoadHistory replaces the message list with the server's history. It returns
// ErrBusy without touching the view while a send is in flight, including one
// that started during the fetch.
func (s *Session) LoadHistory(ctx context.Context) error {
	if s.State() == Sending {
		return ErrBusy
	}
	start := time.Now()
	history, err := s.client.ChatHistory(ctx, s.agentID)
	if err != nil {
		return s.fail("load_history", err, MsgHistoryFailed)
	}

	entries := make([]Entry, len(history))
	for i, m := range history {
		entries[i] = entryFor(m)
	}
	s.mu.Lock()
	if s.state == Sending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.messages = append([]domain.ChatMessage(nil), history...)
	s.mu.Unlock()

	s.view.ShowMessages(entries)
	s.log.TimedEvent("history_loaded", start, map[string]interface{}{"count": len(history)}, nil)
	return nil
}

// SendMessage posts text and renders the reply. A blank text returns
// ErrEmptyMessage and a send while another is in flight returns ErrBusy;
// neither touches the view or the network.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == Sending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = Sending
	user := domain.ChatMessage{Role: domain.RoleUser, Content: text}
	s.messages = append(s.messages, user)
	s.mu.Unlock()

	start := time.Now()
	pending := s.newID()
	s.view.AppendMessage(userEntry(user))
	s.view.SetInputEnabled(false)
	s.view.ShowPending(pending)

	outcome := Failed
	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.outcome = outcome
		s.mu.Unlock()
		s.view.SetInputEnabled(true)
	}()

	reply, err := s.client.SendChat(ctx, s.agentID, text)
	if api.IsUnauthenticated(err) {
		s.log.Warn("send_unauthenticated", nil, err)
		s.view.Navigate(ui.LoginRoute)
		return err
	}
	if err != nil {
		s.log.TimedEvent("send", start, nil, err)
		s.view.RemovePending(pending)
		s.view.Notify(ui.Failure(bannerText(err, MsgSendFailed)).WithTTL(ui.ChatTTL))
		return fmt.Errorf("send message: %w", err)
	}

	assistant := domain.ChatMessage{Role: domain.RoleAssistant, Content: reply}
	s.mu.Lock()
	s.messages = append(s.messages, assistant)
	s.mu.Unlock()
	s.view.ReplacePending(pending, entryFor(assistant))
	outcome = Rendered
	s.log.TimedEvent("send", start, map[string]interface{}{"reply_len": len(reply)}, nil)
	return nil
}

// LoadAgentFiles refreshes the file panel.
func (s *Session) LoadAgentFiles(ctx context.Context) error {
	files, err := s.client.ListFiles(ctx, s.agentID)
	if err != nil {
		return s.fail("load_files", err, MsgFilesFailed)
	}
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	s.view.ShowFiles(FileList{Files: files})
	return nil
}

// UploadFile sends r as filename and refreshes the file panel on success.
func (s *Session) UploadFile(ctx context.Context, filename string, r io.Reader) error {
	f, err := s.client.UploadFile(ctx, s.agentID, filename, r)
	if api.IsUnauthenticated(err) {
		s.view.Navigate(ui.LoginRoute)
		return err
	}
	if err != nil {
		s.log.Warn("upload_failed", map[string]interface{}{"filename": filename}, err)
		text := MsgUploadFailed
		if isTransport(err) {
			text = MsgNetwork
		}
		s.view.Notify(ui.Failure(text).WithTTL(ui.ChatTTL))
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	stored := filename
	if f != nil {
		stored = f.Filename
	}
	s.log.Info("uploaded", map[string]interface{}{"filename": stored})
	s.view.Notify(ui.Success(MsgUploadOK).WithTTL(ui.ChatTTL))
	return s.LoadAgentFiles(ctx)
}

// fail reports a failed load: 401 redirects silently, anything else shows
// fallback as a chat banner.
func (s *Session) fail(event string, err error, fallback string) error {
	if api.IsUnauthenticated(err) {
		s.view.Navigate(ui.LoginRoute)
		return err
	}
	s.log.Warn(event, nil, err)
	s.view.Notify(ui.Failure(fallback).WithTTL(ui.ChatTTL))
	return fmt.Errorf("%s: %w", strings.ReplaceAll(event, "_", " "), err)
}

// bannerText prefers the server's message, then a network notice, then fallback.
func bannerText(err error, fallback string) string {
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	if isTransport(err) {
		return MsgNetwork
	}
	return fallback
}

func isTransport(err error) bool {
	var re *api.RequestError
	return errors.As(err, &re) && re.Status == 0
}
