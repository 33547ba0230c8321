package selftest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/auth"
	"github.com/joss/agentchat/internal/config"
	"github.com/joss/agentchat/internal/devbackend"
	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/store"
)

type fakeProber struct {
	code int
	err  error
}

func (f fakeProber) Probe(context.Context) (int, error) { return f.code, f.err }
func (f fakeProber) BaseURL() string                    { return "http://backend/api" }

func TestCheckHealthyWithDevBackend(t *testing.T) {
	srv := httptest.NewServer(devbackend.New().Handler())
	t.Cleanup(srv.Close)

	kv := store.NewMemory()
	creds := auth.NewCredentialStore(kv)
	require.NoError(t, creds.Save(context.Background(), domain.Credentials{Access: "tok", Username: "ada"}))

	env := Check(context.Background(), Options{
		Env:         &config.Env{APIURL: srv.URL, Timeout: time.Second},
		API:         api.New(srv.URL, creds),
		Store:       kv,
		StorePath:   "memory",
		Credentials: creds,
		IsTerminal:  func() bool { return true },
	})

	assert.True(t, env.IsHealthy(), env.Errors)
	assert.Empty(t, env.Warnings)
	assert.Equal(t, "healthy", env.Health.Status)
	assert.Equal(t, "ok", env.Health.Components["api"].Status)
	assert.Equal(t, "ok", env.Health.Components["credentials"].Status)
	assert.True(t, env.LoggedIn)
	assert.Equal(t, "ada", env.Username)

	summary := env.Summary()
	assert.Contains(t, summary, "AGENTCHAT ENVIRONMENT CHECK")
	assert.Contains(t, summary, "answered 401")
	assert.Contains(t, summary, "Logged in:    Yes as ada")
	assert.Contains(t, summary, "Status: HEALTHY")
	assert.Equal(t, "api:"+srv.URL+" mode:interactive user:ada", env.QuickCheck())
}

func TestCheckReportsFailures(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Close())

	env := Check(context.Background(), Options{
		Env:   &config.Env{APIURL: "not a url", Timeout: time.Second},
		API:   fakeProber{err: errors.New("connection refused")},
		Store: kv,
	})

	assert.False(t, env.IsHealthy())
	assert.Equal(t, "unhealthy", env.Health.Status)
	assert.Len(t, env.Errors, 3)
	assert.Contains(t, env.Errors, "api: connection refused")
	assert.Contains(t, env.Errors, "credentials: "+store.ErrClosed.Error())
	assert.Contains(t, env.Warnings[0], "not a terminal")

	summary := env.Summary()
	assert.Contains(t, summary, "No (CLI commands only)")
	assert.Contains(t, summary, "Status: UNHEALTHY")
	assert.Contains(t, env.QuickCheck(), "Environment unhealthy: ")
}

func TestAPIProbeStatuses(t *testing.T) {
	tests := []struct {
		name string
		code int
		want string
	}{
		{"anonymous rejected", http.StatusUnauthorized, "ok"},
		{"open", http.StatusOK, "ok"},
		{"wrong path", http.StatusNotFound, "degraded"},
		{"broken", http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := APIProbe(fakeProber{code: tt.code}).Check(context.Background())
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestCheckHealthFoldsStatuses(t *testing.T) {
	probe := func(name, status string) Probe {
		return Probe{Name: name, Check: func(context.Context) ComponentStatus { return ComponentStatus{Status: status} }}
	}

	assert.Equal(t, "healthy", CheckHealth(context.Background()).Status)
	assert.Equal(t, "degraded", CheckHealth(context.Background(), probe("a", "ok"), probe("b", "degraded")).Status)
	got := CheckHealth(context.Background(), probe("a", "degraded"), probe("b", "error"))
	assert.Equal(t, "unhealthy", got.Status)
	assert.Len(t, got.Components, 2)
}

func TestQuickHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	QuickHealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
