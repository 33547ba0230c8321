package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/devbackend"
	"github.com/joss/agentchat/internal/domain"
)

func newBackend(t *testing.T) (*devbackend.Server, *httptest.Server) {
	t.Helper()
	be := devbackend.New()
	srv := httptest.NewServer(be.Handler())
	t.Cleanup(srv.Close)
	return be, srv
}

func TestLogin(t *testing.T) {
	be, srv := newBackend(t)
	be.AddUser("ada", "secret")
	c := New(srv.URL, nil)

	resp, err := c.Login(context.Background(), "ada", "secret")
	require.NoError(t, err)
	creds := resp.Credentials()
	assert.True(t, creds.Valid())
	assert.NotEmpty(t, creds.Refresh)
	assert.Equal(t, "ada", creds.Username)
}

func TestLoginBadCredentialsIsNotUnauthenticated(t *testing.T) {
	be, srv := newBackend(t)
	be.AddUser("ada", "secret")
	c := New(srv.URL, nil)

	_, err := c.Login(context.Background(), "ada", "wrong")
	require.Error(t, err)
	assert.False(t, IsUnauthenticated(err))
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, "Invalid credentials", ServerMessage(err))
}

func TestRegisterValidationBody(t *testing.T) {
	be, srv := newBackend(t)
	be.AddUser("ada", "secret")
	c := New(srv.URL, nil)

	_, err := c.Register(context.Background(), "ada", "a@x.io", "pw")
	require.Error(t, err)
	assert.Empty(t, ServerMessage(err))
	assert.Contains(t, ServerBody(err), "already exists")
}

func TestAgentsCRUD(t *testing.T) {
	be, srv := newBackend(t)
	tok := be.AddUser("ada", "pw")
	c := New(srv.URL, StaticToken(tok))
	ctx := context.Background()

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	assert.Empty(t, agents)

	created, err := c.CreateAgent(ctx, domain.AgentInput{Name: "Helper", Description: "d", SystemPrompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "Helper", created.Name)
	assert.Equal(t, "d", created.DescriptionOr(""))

	got, err := c.GetAgent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, c.DeleteAgent(ctx, created.ID))
	_, err = c.GetAgent(ctx, created.ID)
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusNotFound, re.Status)
}

func TestChatAndHistory(t *testing.T) {
	be, srv := newBackend(t)
	tok := be.AddUser("ada", "pw")
	a := be.AddAgent("ada", domain.AgentInput{Name: "A"})
	c := New(srv.URL, StaticToken(tok))
	ctx := context.Background()

	reply, err := c.SendChat(ctx, a.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello", reply)

	history, err := c.ChatHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleUser, Content: "hello"}, stripTime(history[0]))
	assert.Equal(t, domain.ChatMessage{Role: domain.RoleAssistant, Content: "Echo: hello"}, stripTime(history[1]))
}

func stripTime(m domain.ChatMessage) domain.ChatMessage {
	m.CreatedAt = nil
	return m
}

func TestUploadAndListFiles(t *testing.T) {
	be, srv := newBackend(t)
	tok := be.AddUser("ada", "pw")
	a := be.AddAgent("ada", domain.AgentInput{Name: "A"})
	c := New(srv.URL, StaticToken(tok))
	ctx := context.Background()

	up, err := c.UploadFile(ctx, a.ID, "cv.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", up.Filename)

	files, err := c.ListFiles(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "cv.pdf", files[0].Filename)
}

func TestUploadAcceptsBodylessSuccess(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"no content", http.StatusNoContent, ""},
		{"plain text", http.StatusCreated, "uploaded"},
		{"empty json", http.StatusOK, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/upload/", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, StaticToken("tok"))
			up, err := c.UploadFile(context.Background(), 1, "cv.pdf", strings.NewReader("%PDF-1.4"))
			require.NoError(t, err)
			assert.Nil(t, up)
		})
	}
}

func TestUnauthenticated(t *testing.T) {
	_, srv := newBackend(t)
	ctx := context.Background()

	t.Run("server rejects token", func(t *testing.T) {
		c := New(srv.URL, StaticToken("expired"))
		_, err := c.ListAgents(ctx)
		assert.True(t, IsUnauthenticated(err))
		assert.NotErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("no token skips the network", func(t *testing.T) {
		be, srv := newBackend(t)
		c := New(srv.URL, StaticToken(""))
		_, err := c.SendChat(ctx, 1, "hi")
		assert.True(t, IsUnauthenticated(err))
		assert.Empty(t, be.Requests())
	})
}

func TestServerErrorMessage(t *testing.T) {
	be, srv := newBackend(t)
	tok := be.AddUser("ada", "pw")
	be.InjectFault(http.MethodPost, "/api/chat/", devbackend.Fault{Status: 500, Body: `{"error":"Failed to get AI response: boom"}`})
	c := New(srv.URL, StaticToken(tok))

	_, err := c.SendChat(context.Background(), 1, "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, "Failed to get AI response: boom", ServerMessage(err))
	assert.Equal(t, "send chat: status 500: Failed to get AI response: boom", err.Error())
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, StaticToken("t"), WithTimeout(time.Second))
	_, err := c.ListAgents(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.False(t, IsUnauthenticated(err))
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Zero(t, re.Status)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", StaticToken("tok-1"), WithHTTPClient(srv.Client()))
	assert.Equal(t, srv.URL+"/api", c.BaseURL())

	_, err := c.ListFiles(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Len(t, gotReqID, 36)
}

func TestRequestErrorFormatting(t *testing.T) {
	assert.Equal(t, "x: status 502", (&RequestError{Op: "x", Status: 502}).Error())
	assert.Equal(t, "x: boom", (&RequestError{Op: "x", Err: errors.New("boom")}).Error())
	assert.Equal(t, "detail text", errorMessage([]byte(`{"detail":"detail text"}`)))
	assert.Equal(t, "", errorMessage([]byte(`not json`)))
}

func TestProbe(t *testing.T) {
	_, srv := newBackend(t)
	c := New(srv.URL, StaticToken("ignored"))

	status, err := c.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	srv.Close()
	status, err = c.Probe(context.Background())
	require.Error(t, err)
	assert.Zero(t, status)
}
