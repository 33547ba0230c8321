// Package tui is the Bubble Tea front end: a login form, the agent list and
// the chat view, switched by ui.Route.
package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/directory"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/ui"
)

// Deps are the collaborators every view shares.
type Deps struct {
	Client      *api.Client
	Credentials *auth.CredentialStore
	// Timeout bounds each backend call. Zero means one minute.
	Timeout time.Duration
	// WorkDir is where the upload picker starts.
	WorkDir string
}

// Messages emitted by sink. Controllers run inside tea.Cmds and report every
// visible change through these.
type (
	navigateMsg      ui.Route
	bannerMsg        ui.Banner
	bannerExpiredMsg struct{ seq int }
	agentInfoMsg     chat.AgentInfo
	messagesMsg      []chat.Entry
	appendMsg        chat.Entry
	pendingMsg       string
	replaceMsg       struct {
		id    string
		entry chat.Entry
	}
	removeMsg  string
	inputMsg   bool
	filesMsg   chat.FileList
	listingMsg directory.Listing
	opDoneMsg  struct {
		op  string
		err error
	}
)

// sink implements ui.Navigator, ui.Notifier, chat.View and directory.View by
// forwarding to the running program. emit blocks until the program reads the
// message, so controllers must only be called from tea.Cmds.
type sink struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (s *sink) attach(send func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = send
}

func (s *sink) emit(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (s *sink) Navigate(r ui.Route)                    { s.emit(navigateMsg(r)) }
func (s *sink) Notify(b ui.Banner)                     { s.emit(bannerMsg(b)) }
func (s *sink) ShowAgent(i chat.AgentInfo)             { s.emit(agentInfoMsg(i)) }
func (s *sink) ShowMessages(es []chat.Entry)           { s.emit(messagesMsg(es)) }
func (s *sink) AppendMessage(e chat.Entry)             { s.emit(appendMsg(e)) }
func (s *sink) ShowPending(id string)                  { s.emit(pendingMsg(id)) }
func (s *sink) ReplacePending(id string, e chat.Entry) { s.emit(replaceMsg{id: id, entry: e}) }
func (s *sink) RemovePending(id string)                { s.emit(removeMsg(id)) }
func (s *sink) SetInputEnabled(on bool)                { s.emit(inputMsg(on)) }
func (s *sink) ShowFiles(l chat.FileList)              { s.emit(filesMsg(l)) }
func (s *sink) ShowAgents(l directory.Listing)         { s.emit(listingMsg(l)) }

// App is the root model. It owns the active route, the banner and one child
// model per page.
type App struct {
	deps    Deps
	sink    *sink
	flow    *auth.Flow
	log     *logging.Logger
	initCmd tea.Cmd

	route  ui.Route
	login  loginModel
	agents agentsModel
	chat   chatModel

	banner    *ui.Banner
	bannerSeq int

	width    int
	height   int
	quitting bool
}

// NewApp builds the root model starting at route.
func NewApp(deps Deps, start ui.Route) App {
	if deps.Timeout <= 0 {
		deps.Timeout = time.Minute
	}
	s := &sink{}
	a := App{
		deps: deps,
		sink: s,
		log:  logging.New("tui"),
		flow: auth.NewFlow(auth.Config{
			Client:    deps.Client,
			Store:     deps.Credentials,
			Navigator: s,
			Notifier:  s,
		}),
	}
	a.initCmd = a.switchTo(start)
	return a
}

// Run starts the program on the terminal and blocks until it exits.
func Run(deps Deps, start ui.Route) error {
	app := NewApp(deps, start)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.sink.attach(p.Send)
	_, err := p.Run()
	return err
}

func (a App) Init() tea.Cmd {
	return a.initCmd
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.quitting = true
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case navigateMsg:
		cmd := a.switchTo(ui.Route(msg))
		return a, tea.Batch(cmd, a.resize())
	case bannerMsg:
		return a.showBanner(ui.Banner(msg))
	case bannerExpiredMsg:
		if msg.seq == a.bannerSeq {
			a.banner = nil
		}
		return a, nil
	case opDoneMsg:
		if msg.err != nil && !api.IsUnauthenticated(msg.err) {
			a.log.Debug("op_failed", map[string]interface{}{"op": msg.op, "error": msg.err.Error()})
		}
	case quitMsg:
		a.quitting = true
		return a, tea.Quit
	}

	var cmd tea.Cmd
	switch a.route.Page {
	case ui.PageLogin, ui.PageRegister:
		a.login, cmd = a.login.Update(msg)
	case ui.PageAgents:
		a.agents, cmd = a.agents.Update(msg)
	case ui.PageChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}
	var body string
	switch a.route.Page {
	case ui.PageLogin, ui.PageRegister:
		body = a.login.View()
	case ui.PageAgents:
		body = a.agents.View()
	case ui.PageChat:
		body = a.chat.View()
	}
	return renderBanner(a.banner, a.width) + body
}

// switchTo replaces the child model for r and returns its start command.
func (a *App) switchTo(r ui.Route) tea.Cmd {
	a.route = r
	a.log.Debug("navigate", map[string]interface{}{"route": r.String()})
	switch r.Page {
	case ui.PageLogin, ui.PageRegister:
		a.login = newLoginModel(a.flow, a.runner(), r.Page == ui.PageRegister)
		flow := a.flow
		return tea.Batch(a.login.Init(), a.run("redirect", func(ctx context.Context) error {
			flow.RedirectIfAuthenticated(ctx)
			return nil
		}))
	case ui.PageAgents:
		dir := directory.New(directory.Config{Client: a.deps.Client, View: a.sink})
		a.agents = newAgentsModel(dir, a.flow, a.runner())
		return a.guarded("load_agents", dir.Load)
	case ui.PageChat:
		sess := chat.New(chat.Config{AgentID: r.AgentID, Client: a.deps.Client, View: a.sink})
		a.chat = newChatModel(sess, a.flow, a.runner(), a.deps.WorkDir)
		return tea.Batch(a.chat.Init(), a.guarded("open_chat", sess.Open))
	}
	return nil
}

// guarded runs fn only when credentials are present.
func (a *App) guarded(op string, fn func(context.Context) error) tea.Cmd {
	flow := a.flow
	return a.run(op, func(ctx context.Context) error {
		if !flow.RequireAuth(ctx) {
			return nil
		}
		return fn(ctx)
	})
}

func (a *App) run(op string, fn func(context.Context) error) tea.Cmd {
	return a.runner()(op, fn)
}

// runner returns the function children use to run backend calls as tea.Cmds.
func (a *App) runner() runFunc {
	timeout := a.deps.Timeout
	return func(op string, fn func(context.Context) error) tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			err := logging.NewRecoveryHandler("tui").WrapError(func() error { return fn(ctx) })
			return opDoneMsg{op: op, err: err}
		}
	}
}

// resize replays the last window size to a freshly created child.
func (a App) resize() tea.Cmd {
	if a.width == 0 {
		return nil
	}
	w, h := a.width, a.height
	return func() tea.Msg { return tea.WindowSizeMsg{Width: w, Height: h} }
}

func (a App) showBanner(b ui.Banner) (tea.Model, tea.Cmd) {
	a.bannerSeq++
	a.banner = &b
	seq := a.bannerSeq
	ttl := b.TTL
	if ttl <= 0 {
		ttl = ui.DefaultTTL
	}
	return a, tea.Tick(ttl, func(time.Time) tea.Msg { return bannerExpiredMsg{seq: seq} })
}

// runFunc wraps a backend call as a tea.Cmd.
type runFunc func(op string, fn func(context.Context) error) tea.Cmd

// navigateTo switches routes from inside Update, where calling a controller
// directly would block on the program's message channel.
func navigateTo(r ui.Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg(r) }
}

// quitMsg asks the app to exit.
type quitMsg struct{}

func quit() tea.Msg { return quitMsg{} }

// isCanceled reports a declined confirmation.
func isCanceled(err error) bool {
	return errors.Is(err, directory.ErrCanceled)
}
