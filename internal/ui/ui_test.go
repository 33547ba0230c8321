package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteRoundTrip(t *testing.T) {
	for _, r := range []Route{LoginRoute, RegisterRoute, AgentsRoute, ChatRoute(7)} {
		got, err := ParseRoute(r.String())
		require.NoError(t, err, r.String())
		assert.Equal(t, r, got)
	}
}

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute("/chat?agent_id=12")
	require.NoError(t, err)
	assert.Equal(t, ChatRoute(12), r)

	_, err = ParseRoute("chat")
	assert.Error(t, err)
	_, err = ParseRoute("chat?agent_id=x")
	assert.Error(t, err)
	_, err = ParseRoute("settings")
	assert.Error(t, err)
}

func TestBanners(t *testing.T) {
	b := Success("ok")
	assert.Equal(t, KindSuccess, b.Kind)
	assert.Equal(t, DefaultTTL, b.TTL)

	f := Failure("nope").WithTTL(ChatTTL)
	assert.Equal(t, KindError, f.Kind)
	assert.Equal(t, 3*time.Second, f.TTL)
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	_, ok := rec.LastRoute()
	assert.False(t, ok)

	var nav Navigator = &rec
	var note Notifier = &rec
	nav.Navigate(AgentsRoute)
	nav.Navigate(ChatRoute(1))
	note.Notify(Failure("x"))

	last, ok := rec.LastRoute()
	require.True(t, ok)
	assert.Equal(t, ChatRoute(1), last)
	b, ok := rec.LastBanner()
	require.True(t, ok)
	assert.Equal(t, "x", b.Text)
}

func TestFuncAdapters(t *testing.T) {
	var got Route
	NavigatorFunc(func(r Route) { got = r }).Navigate(LoginRoute)
	assert.Equal(t, LoginRoute, got)

	var banner Banner
	NotifierFunc(func(b Banner) { banner = b }).Notify(Success("y"))
	assert.Equal(t, "y", banner.Text)
}
