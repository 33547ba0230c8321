// Package ui holds the view-independent pieces shared by every front end:
// routes, the Navigator that switches between them, and transient banners.
package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Page names a top-level view.
type Page string

const (
	PageLogin    Page = "login"
	PageRegister Page = "register"
	PageAgents   Page = "agents"
	PageChat     Page = "chat"
)

// Route is a page plus its parameters. Only the chat page takes one.
type Route struct {
	Page    Page
	AgentID int
}

var (
	LoginRoute    = Route{Page: PageLogin}
	RegisterRoute = Route{Page: PageRegister}
	AgentsRoute   = Route{Page: PageAgents}
)

// ChatRoute opens the chat view for an agent.
func ChatRoute(agentID int) Route {
	return Route{Page: PageChat, AgentID: agentID}
}

// String renders the route as a path, e.g. "chat?agent_id=3".
func (r Route) String() string {
	if r.Page == PageChat {
		return string(r.Page) + "?agent_id=" + strconv.Itoa(r.AgentID)
	}
	return string(r.Page)
}

// ParseRoute is the inverse of Route.String.
func ParseRoute(s string) (Route, error) {
	path, query, _ := strings.Cut(strings.TrimPrefix(s, "/"), "?")
	switch Page(path) {
	case PageLogin, PageRegister, PageAgents:
		return Route{Page: Page(path)}, nil
	case PageChat:
		q, err := url.ParseQuery(query)
		if err != nil {
			return Route{}, fmt.Errorf("parse route %q: %w", s, err)
		}
		id, err := strconv.Atoi(q.Get("agent_id"))
		if err != nil || id <= 0 {
			return Route{}, fmt.Errorf("parse route %q: missing agent_id", s)
		}
		return ChatRoute(id), nil
	}
	return Route{}, fmt.Errorf("unknown route %q", s)
}

// Navigator switches the active view.
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// Kind is the visual class of a banner.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Banner lifetimes.
const (
	DefaultTTL = 5 * time.Second
	ChatTTL    = 3 * time.Second
)

// Banner is a transient status line.
type Banner struct {
	Text string
	Kind Kind
	TTL  time.Duration
}

func Success(text string) Banner { return Banner{Text: text, Kind: KindSuccess, TTL: DefaultTTL} }
func Failure(text string) Banner { return Banner{Text: text, Kind: KindError, TTL: DefaultTTL} }

// WithTTL returns b with a different lifetime.
func (b Banner) WithTTL(d time.Duration) Banner {
	b.TTL = d
	return b
}

// Notifier shows banners.
type Notifier interface {
	Notify(Banner)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Banner)

func (f NotifierFunc) Notify(b Banner) { f(b) }

// Recorder is a Navigator and Notifier that remembers what it was asked to do.
// The CLI uses it to turn controller side effects into output.
type Recorder struct {
	Routes  []Route
	Banners []Banner
}

func (r *Recorder) Navigate(route Route) { r.Routes = append(r.Routes, route) }
func (r *Recorder) Notify(b Banner)      { r.Banners = append(r.Banners, b) }

// LastRoute returns the most recent navigation, if any.
func (r *Recorder) LastRoute() (Route, bool) {
	if len(r.Routes) == 0 {
		return Route{}, false
	}
	return r.Routes[len(r.Routes)-1], true
}

// LastBanner returns the most recent banner, if any.
func (r *Recorder) LastBanner() (Banner, bool) {
	if len(r.Banners) == 0 {
		return Banner{}, false
	}
	return r.Banners[len(r.Banners)-1], true
}
