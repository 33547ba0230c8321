package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/devbackend"
	"github.com/joss/agentchat/internal/directory"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/store"
	"github.com/joss/agentchat/internal/ui"
)

// syncRun executes backend calls inline so tests can drive them.
func syncRun(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg { return opDoneMsg{op: op, err: fn(context.Background())} }
}

// collector gathers everything a sink emits.
type collector struct{ msgs []tea.Msg }

func (c *collector) send(m tea.Msg) { c.msgs = append(c.msgs, m) }

func (c *collector) take() []tea.Msg {
	out := c.msgs
	c.msgs = nil
	return out
}

type env struct {
	backend *devbackend.Server
	client  *api.Client
	creds   *auth.CredentialStore
	sink    *sink
	out     *collector
	flow    *auth.Flow
	agent   domain.Agent
}

func newEnv(t *testing.T) *env {
	t.Helper()
	be := devbackend.New()
	srv := httptest.NewServer(be.Handler())
	t.Cleanup(srv.Close)

	tok := be.AddUser("ada", "pw")
	agent := be.AddAgent("ada", domain.AgentInput{Name: "Helper"})
	creds := auth.NewCredentialStore(store.NewMemory())
	require.NoError(t, creds.Save(context.Background(), domain.Credentials{Access: tok, Username: "ada"}))

	out := &collector{}
	s := &sink{}
	s.attach(out.send)
	client := api.New(srv.URL, creds)
	return &env{
		backend: be,
		client:  client,
		creds:   creds,
		sink:    s,
		out:     out,
		agent:   agent,
		flow:    auth.NewFlow(auth.Config{Client: client, Store: creds, Navigator: s, Notifier: s}),
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSinkForwardsEveryCall(t *testing.T) {
	out := &collector{}
	s := &sink{}
	s.Navigate(ui.LoginRoute) // dropped before attach
	s.attach(out.send)

	var cv chat.View = s
	var dv directory.View = s
	cv.Navigate(ui.AgentsRoute)
	cv.Notify(ui.Success("ok"))
	cv.ShowPending("p")
	cv.SetInputEnabled(false)
	dv.ShowAgents(directory.Listing{})

	msgs := out.take()
	require.Len(t, msgs, 5)
	assert.Equal(t, navigateMsg(ui.AgentsRoute), msgs[0])
	assert.Equal(t, bannerMsg(ui.Success("ok")), msgs[1])
	assert.Equal(t, pendingMsg("p"), msgs[2])
	assert.Equal(t, inputMsg(false), msgs[3])
	assert.IsType(t, listingMsg{}, msgs[4])
}

func TestAppNavigationAndBanner(t *testing.T) {
	e := newEnv(t)
	app := NewApp(Deps{Client: e.client, Credentials: e.creds}, ui.LoginRoute)
	assert.Equal(t, ui.LoginRoute, app.route)
	assert.NotNil(t, app.Init())

	model, _ := app.Update(navigateMsg(ui.AgentsRoute))
	app = model.(App)
	assert.Equal(t, ui.AgentsRoute, app.route)

	model, cmd := app.Update(bannerMsg(ui.Failure("nope")))
	app = model.(App)
	require.NotNil(t, cmd)
	require.NotNil(t, app.banner)
	assert.Contains(t, app.View(), "nope")

	// A newer banner makes the first expiry stale.
	model, _ = app.Update(bannerMsg(ui.Success("yay")))
	app = model.(App)
	model, _ = app.Update(bannerExpiredMsg{seq: 1})
	app = model.(App)
	require.NotNil(t, app.banner)
	assert.Equal(t, "yay", app.banner.Text)

	model, _ = app.Update(bannerExpiredMsg{seq: 2})
	app = model.(App)
	assert.Nil(t, app.banner)
}

func TestAppQuits(t *testing.T) {
	e := newEnv(t)
	app := NewApp(Deps{Client: e.client, Credentials: e.creds}, ui.AgentsRoute)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, "Goodbye!\n", model.View())
}

func newTestChat(e *env) chatModel {
	sess := chat.New(chat.Config{AgentID: e.agent.ID, Client: e.client, View: e.sink, NewID: func() string { return "p1" }})
	m := newChatModel(sess, e.flow, syncRun, os.TempDir())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m
}

// feed delivers collected sink messages back to the model.
func feed(m chatModel, msgs []tea.Msg) chatModel {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestChatSendRoundTrip(t *testing.T) {
	e := newEnv(t)
	m := newTestChat(e)

	m.input.SetValue("hello **there**")
	m, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())

	done := cmd().(opDoneMsg)
	require.NoError(t, done.err)
	msgs := e.out.take()

	// Replay up to the pending placeholder: input is blurred and a spinner shows.
	m = feed(m, msgs[:3])
	assert.True(t, m.sending)
	assert.False(t, m.input.Focused())
	assert.Equal(t, "p1", m.pendingID)
	assert.Contains(t, m.View(), "Waiting for reply")

	// Enter while sending does nothing.
	m.input.SetValue("again")
	_, cmd = m.Update(key("enter"))
	assert.Nil(t, cmd)

	m = feed(m, msgs[3:])
	assert.False(t, m.sending)
	assert.Empty(t, m.pendingID)
	require.Len(t, m.entries, 2)
	assert.Equal(t, domain.RoleAssistant, m.entries[1].Message.Role)
	assert.Contains(t, m.renderTranscript(), "Echo: hello there")
}

func TestChatOpenShowsInfoAndFiles(t *testing.T) {
	e := newEnv(t)
	m := newTestChat(e)
	require.NoError(t, m.session.Open(context.Background()))
	m = feed(m, e.out.take())

	assert.Equal(t, "Chat with Helper", m.info.Title)
	m, _ = executeSlashCommand(m, "/info")
	m, cmd := executeSlashCommand(m, "/files")
	require.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Chat with Helper")
	assert.Contains(t, view, "N/A")
	assert.Contains(t, view, chat.NoFiles)
}

func TestChatUnauthenticatedNavigates(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.creds.Clear(context.Background()))
	m := newTestChat(e)

	m.input.SetValue("hi")
	_, cmd := m.Update(key("enter"))
	done := cmd().(opDoneMsg)
	assert.True(t, api.IsUnauthenticated(done.err))
	assert.Contains(t, e.out.take(), tea.Msg(navigateMsg(ui.LoginRoute)))
}

func TestSlashCommands(t *testing.T) {
	name, args := parseSlashCommand("  /Upload  notes.md ")
	assert.Equal(t, "upload", name)
	assert.Equal(t, "notes.md", args)

	e := newEnv(t)
	m := newTestChat(e)

	m, cmd := executeSlashCommand(m, "/nope")
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "Unknown command: /nope")

	m, _ = executeSlashCommand(m, "/help")
	for _, c := range []string{"/files", "/upload", "/info", "/reload", "/back", "/logout"} {
		assert.Contains(t, m.notice, c)
	}

	_, cmd = executeSlashCommand(m, "/back")
	require.NotNil(t, cmd)
	assert.Equal(t, navigateMsg(ui.AgentsRoute), cmd())

	m, cmd = executeSlashCommand(m, "/upload missing.pdf")
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "Cannot read missing.pdf")
}

func TestSlashUploadSendsFile(t *testing.T) {
	e := newEnv(t)
	m := newTestChat(e)
	dir := t.TempDir()
	m.workDir = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic.png"), []byte("x"), 0o600))

	m, cmd := executeSlashCommand(m, "/upload pic.png")
	assert.Nil(t, cmd)
	assert.Contains(t, m.notice, "Unsupported file type")

	_, cmd = executeSlashCommand(m, "/upload notes.md")
	require.NotNil(t, cmd)
	require.NoError(t, cmd().(opDoneMsg).err)
	assert.Equal(t, 1, e.backend.CountRequests(http.MethodPost, "/api/upload/"))
}

func TestLogoutCommand(t *testing.T) {
	e := newEnv(t)
	m := newTestChat(e)
	_, cmd := executeSlashCommand(m, "/logout")
	require.NoError(t, cmd().(opDoneMsg).err)
	tok, err := e.creds.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.Contains(t, e.out.take(), tea.Msg(navigateMsg(ui.LoginRoute)))
}

func TestScanUploadable(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a.pdf", "b.png", ".hidden/c.md", "node_modules/d.md", "sub/E.TXT", "sub/deep/f.json"} {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))
	}

	got, err := ScanUploadable(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "sub/E.TXT", "sub/deep/f.json"}, got)

	fp := NewFilePicker(dir, 60, 10)
	require.NoError(t, fp.LoadFiles())
	assert.Equal(t, 3, fp.Len())

	fp, _ = fp.Update(key("json"))
	assert.Equal(t, "json", fp.Filter())
	assert.Equal(t, 1, fp.Len())
	path, ok := fp.SelectedItem()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "sub", "deep", "f.json"), path)

	fp, _ = fp.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "jso", fp.Filter())
}

func TestAgentsDeleteConfirmation(t *testing.T) {
	e := newEnv(t)
	dir := directory.New(directory.Config{Client: e.client, View: e.sink})
	m := newAgentsModel(dir, e.flow, syncRun)

	require.NoError(t, dir.Load(context.Background()))
	for _, msg := range e.out.take() {
		m, _ = m.Update(msg)
	}
	require.Len(t, m.listing.Cards, 1)

	m, _ = m.Update(key("d"))
	assert.Equal(t, modeConfirm, m.mode)
	assert.Contains(t, m.View(), directory.ConfirmDelete)

	m, cmd := m.Update(key("n"))
	assert.Equal(t, modeList, m.mode)
	require.NoError(t, cmd().(opDoneMsg).err)
	assert.Zero(t, e.backend.CountRequests(http.MethodDelete, "/api/agents/"))

	m, _ = m.Update(key("d"))
	_, cmd = m.Update(key("y"))
	require.NoError(t, cmd().(opDoneMsg).err)
	assert.Equal(t, 1, e.backend.CountRequests(http.MethodDelete, "/api/agents/"))
}

func TestAgentsCreateForm(t *testing.T) {
	e := newEnv(t)
	dir := directory.New(directory.Config{Client: e.client, View: e.sink})
	m := newAgentsModel(dir, e.flow, syncRun)

	m, _ = m.Update(key("n"))
	require.Equal(t, modeCreate, m.mode)
	assert.Equal(t, domain.DefaultSystemPrompt, m.form[2].Value())

	m.form[0].SetValue("Writer")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	done := cmd().(opDoneMsg)
	require.NoError(t, done.err)
	m, _ = m.Update(done)
	assert.Equal(t, modeList, m.mode)

	for _, msg := range e.out.take() {
		m, _ = m.Update(msg)
	}
	require.Len(t, m.listing.Cards, 2)
	assert.Equal(t, "Writer", m.listing.Cards[0].Name)
}

func TestAgentsEmptyState(t *testing.T) {
	m := newAgentsModel(nil, nil, syncRun)
	assert.Contains(t, m.View(), "Loading agents")
	m, _ = m.Update(listingMsg{})
	assert.Contains(t, m.View(), directory.EmptyText)
}

func TestLoginModelSubmits(t *testing.T) {
	e := newEnv(t)
	e.backend.AddUser("bob", "secret")
	m := newLoginModel(e.flow, syncRun, false)

	m.username.SetValue("bob")
	m, _ = m.Update(key("enter")) // moves to password
	assert.Equal(t, 1, m.focus)
	m.password.SetValue("secret")
	m, cmd := m.Update(key("enter"))
	require.True(t, m.busy)
	require.NotNil(t, cmd)

	var done opDoneMsg
	for _, msg := range cmd().(tea.BatchMsg) {
		if res, ok := msg().(opDoneMsg); ok {
			done = res
		}
	}
	require.NoError(t, done.err)
	assert.Contains(t, e.out.take(), tea.Msg(navigateMsg(ui.AgentsRoute)))
	creds, err := e.creds.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bob", creds.Username)
	assert.True(t, strings.Contains(m.View(), "Signing in"))
}
