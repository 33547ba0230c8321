// Package directory manages the user's agents: the card listing, creation,
// confirmed deletion and opening a chat.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/logging"
	strs "github.com/joss/agentchat/internal/strings"
	"github.com/joss/agentchat/internal/ui"
)

// Texts shown by the directory.
const (
	EmptyText       = "No agents yet. Create your first agent!"
	NoDescription   = "No description"
	ConfirmDelete   = "Are you sure you want to delete this agent?"
	PromptPreviewAt = 100

	MsgCreated      = "Agent created successfully!"
	MsgCreateFailed = "Failed to create agent"
	MsgDeleted      = "Agent deleted successfully!"
	MsgDeleteFailed = "Failed to delete agent"
	MsgLoadFailed   = "Failed to load agents"
	MsgNameRequired = "Agent name is required"
	MsgNetwork      = "Network error. Please try again."
)

var (
	// ErrNameRequired is returned by Create for a blank name; nothing is sent.
	ErrNameRequired = errors.New("agent name is required")
	// ErrCanceled is returned by Delete when the user declines.
	ErrCanceled = errors.New("canceled")
)

// Client is the part of api.Client the directory uses.
type Client interface {
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	CreateAgent(ctx context.Context, in domain.AgentInput) (*domain.Agent, error)
	DeleteAgent(ctx context.Context, id int) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Always is a Confirmer that says yes without asking.
var Always = ConfirmFunc(func(string) bool { return true })

// Card is one agent in the listing.
type Card struct {
	ID            int
	Name          string
	Description   string
	PromptPreview string
}

// CardFor builds the card for a.
func CardFor(a domain.Agent) Card {
	return Card{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.DescriptionOr(NoDescription),
		PromptPreview: strs.Preview(a.SystemPrompt, PromptPreviewAt),
	}
}

// Listing is what the agents page shows.
type Listing struct {
	Cards []Card
}

// Empty reports whether the listing should show EmptyText instead of cards.
func (l Listing) Empty() bool { return len(l.Cards) == 0 }

// View receives directory updates.
type View interface {
	ui.Navigator
	ui.Notifier
	ShowAgents(Listing)
}

// Config wires a Directory. Client and View are required.
type Config struct {
	Client Client
	View   View
	Logger *logging.Logger
}

// Directory is the agents page controller.
type Directory struct {
	client Client
	view   View
	log    *logging.Logger

	mu     sync.Mutex
	agents []domain.Agent
}

// New creates a Directory.
func New(cfg Config) *Directory {
	log := cfg.Logger
	if log == nil {
		log = logging.New("directory")
	}
	return &Directory{client: cfg.Client, view: cfg.View, log: log}
}

// Agents returns the last loaded agents, newest first.
func (d *Directory) Agents() []domain.Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Agent(nil), d.agents...)
}

// Load fetches the agents and shows their cards.
func (d *Directory) Load(ctx context.Context) error {
	agents, err := d.client.ListAgents(ctx)
	if err != nil {
		return d.fail("load", err, MsgLoadFailed)
	}
	d.mu.Lock()
	d.agents = agents
	d.mu.Unlock()

	listing := Listing{Cards: make([]Card, len(agents))}
	for i, a := range agents {
		listing.Cards[i] = CardFor(a)
	}
	d.view.ShowAgents(listing)
	d.log.Debug("loaded", map[string]interface{}{"count": len(agents)})
	return nil
}

// Create adds an agent and reloads the listing. A blank system prompt gets
// the default one.
func (d *Directory) Create(ctx context.Context, in domain.AgentInput) (*domain.Agent, error) {
	in = in.Normalize()
	if in.Name == "" {
		d.view.Notify(ui.Failure(MsgNameRequired))
		return nil, ErrNameRequired
	}
	agent, err := d.client.CreateAgent(ctx, in)
	if err != nil {
		return nil, d.fail("create", err, MsgCreateFailed)
	}
	d.log.Info("created", map[string]interface{}{"agent_id": agent.ID, "name": agent.Name})
	d.view.Notify(ui.Success(MsgCreated))
	return agent, d.Load(ctx)
}

// Delete removes an agent after the confirmer agrees, then reloads.
func (d *Directory) Delete(ctx context.Context, id int, confirm Confirmer) error {
	if !confirm.Confirm(ConfirmDelete) {
		return ErrCanceled
	}
	if err := d.client.DeleteAgent(ctx, id); err != nil {
		return d.fail("delete", err, MsgDeleteFailed)
	}
	d.log.Info("deleted", map[string]interface{}{"agent_id": id})
	d.view.Notify(ui.Success(MsgDeleted))
	return d.Load(ctx)
}

// Open switches to the chat view for an agent.
func (d *Directory) Open(id int) {
	d.view.Navigate(ui.ChatRoute(id))
}

func (d *Directory) fail(op string, err error, fallback string) error {
	if api.IsUnauthenticated(err) {
		d.view.Navigate(ui.LoginRoute)
		return err
	}
	d.log.Warn(op+"_failed", nil, err)
	text := fallback
	var re *api.RequestError
	if errors.As(err, &re) && re.Status == 0 {
		text = MsgNetwork
	}
	d.view.Notify(ui.Failure(text))
	return fmt.Errorf("%s agent: %w", op, err)
}
