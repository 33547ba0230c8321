package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/devbackend"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/ui"
)

type fakeView struct {
	ui.Recorder
	listings []Listing
}

func (v *fakeView) ShowAgents(l Listing) { v.listings = append(v.listings, l) }

func (v *fakeView) last() Listing { return v.listings[len(v.listings)-1] }

func newDirectory(t *testing.T) (*devbackend.Server, *fakeView, *Directory) {
	t.Helper()
	be := devbackend.New()
	srv := httptest.NewServer(be.Handler())
	t.Cleanup(srv.Close)
	tok := be.AddUser("ada", "pw")

	view := &fakeView{}
	return be, view, New(Config{Client: api.New(srv.URL, api.StaticToken(tok)), View: view})
}

func TestCardFor(t *testing.T) {
	desc := "Helps"
	long := strings.Repeat("x", 120)

	c := CardFor(domain.Agent{ID: 3, Name: "A", Description: &desc, SystemPrompt: long})
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, "Helps", c.Description)
	assert.Equal(t, strings.Repeat("x", 100)+"...", c.PromptPreview)

	c = CardFor(domain.Agent{Name: "B", SystemPrompt: "short"})
	assert.Equal(t, NoDescription, c.Description)
	assert.Equal(t, "short...", c.PromptPreview)
}

func TestLoadEmpty(t *testing.T) {
	_, view, d := newDirectory(t)
	require.NoError(t, d.Load(context.Background()))
	require.Len(t, view.listings, 1)
	assert.True(t, view.last().Empty())
}

func TestCreateAndLoad(t *testing.T) {
	be, view, d := newDirectory(t)
	ctx := context.Background()

	agent, err := d.Create(ctx, domain.AgentInput{Name: " First ", SystemPrompt: "  "})
	require.NoError(t, err)
	assert.Equal(t, "First", agent.Name)
	assert.Equal(t, domain.DefaultSystemPrompt, agent.SystemPrompt)

	_, err = d.Create(ctx, domain.AgentInput{Name: "Second", Description: "d"})
	require.NoError(t, err)

	b, _ := view.LastBanner()
	assert.Equal(t, ui.Success(MsgCreated), b)
	cards := view.last().Cards
	require.Len(t, cards, 2)
	assert.Equal(t, "Second", cards[0].Name)
	assert.Equal(t, "First", cards[1].Name)
	assert.Len(t, d.Agents(), 2)
	assert.Equal(t, 2, be.CountRequests(http.MethodPost, "/api/agents/"))
}

func TestCreateRequiresName(t *testing.T) {
	be, view, d := newDirectory(t)
	_, err := d.Create(context.Background(), domain.AgentInput{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, be.CountRequests(http.MethodPost, "/api/agents/"))
	b, _ := view.LastBanner()
	assert.Equal(t, ui.KindError, b.Kind)
}

func TestCreateFailure(t *testing.T) {
	be, view, d := newDirectory(t)
	be.InjectFault(http.MethodPost, "/api/agents/", devbackend.Fault{Status: 500, Body: `{}`})

	_, err := d.Create(context.Background(), domain.AgentInput{Name: "A"})
	require.Error(t, err)
	b, _ := view.LastBanner()
	assert.Equal(t, ui.Failure(MsgCreateFailed), b)
	assert.Empty(t, view.listings)
}

func TestDeleteDeclinedSendsNothing(t *testing.T) {
	be, view, d := newDirectory(t)
	a := be.AddAgent("ada", domain.AgentInput{Name: "A"})

	var asked string
	err := d.Delete(context.Background(), a.ID, ConfirmFunc(func(p string) bool {
		asked = p
		return false
	}))
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, ConfirmDelete, asked)
	assert.Zero(t, be.CountRequests(http.MethodDelete, "/api/agents/"))
	assert.Empty(t, view.Banners)
}

func TestDeleteConfirmed(t *testing.T) {
	be, view, d := newDirectory(t)
	a := be.AddAgent("ada", domain.AgentInput{Name: "A"})
	be.AddAgent("ada", domain.AgentInput{Name: "B"})

	require.NoError(t, d.Delete(context.Background(), a.ID, Always))
	b, _ := view.LastBanner()
	assert.Equal(t, ui.Success(MsgDeleted), b)
	cards := view.last().Cards
	require.Len(t, cards, 1)
	assert.Equal(t, "B", cards[0].Name)
}

func TestDeleteFailure(t *testing.T) {
	_, view, d := newDirectory(t)
	require.Error(t, d.Delete(context.Background(), 99, Always))
	b, _ := view.LastBanner()
	assert.Equal(t, ui.Failure(MsgDeleteFailed), b)
}

func TestUnauthenticatedNavigatesToLogin(t *testing.T) {
	be := devbackend.New()
	srv := httptest.NewServer(be.Handler())
	defer srv.Close()
	view := &fakeView{}
	d := New(Config{Client: api.New(srv.URL, api.StaticToken("stale")), View: view})
	ctx := context.Background()

	assert.True(t, api.IsUnauthenticated(d.Load(ctx)))
	_, err := d.Create(ctx, domain.AgentInput{Name: "A"})
	assert.True(t, api.IsUnauthenticated(err))
	assert.True(t, api.IsUnauthenticated(d.Delete(ctx, 1, Always)))

	assert.Equal(t, []ui.Route{ui.LoginRoute, ui.LoginRoute, ui.LoginRoute}, view.Routes)
	assert.Empty(t, view.Banners)
	assert.Empty(t, view.listings)
}

func TestOpen(t *testing.T) {
	_, view, d := newDirectory(t)
	d.Open(4)
	r, _ := view.LastRoute()
	assert.Equal(t, ui.ChatRoute(4), r)
}
