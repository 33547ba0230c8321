package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/joss/agentchat/internal/api"
	"github.com/joss/agentchat/internal/logging"
	"github.com/joss/agentchat/internal/ui"
)

// Banner texts.
const (
	MsgLoginOK      = "Login successful! Redirecting..."
	MsgLoginFailed  = "Login failed"
	MsgRegisterOK   = "Registration successful! Redirecting..."
	MsgRegisterFail = "Registration failed"
	MsgNetwork      = "Network error. Please try again."
)

// Client is the part of api.Client the flows need.
type Client interface {
	Login(ctx context.Context, username, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
}

// Config wires a Flow.
type Config struct {
	Client    Client
	Store     *CredentialStore
	Navigator ui.Navigator
	Notifier  ui.Notifier
	Logger    *logging.Logger
}

// Flow runs the login, register and logout sequences and the page guards.
type Flow struct {
	client Client
	store  *CredentialStore
	nav    ui.Navigator
	notify ui.Notifier
	log    *logging.Logger
}

// NewFlow builds a Flow. Client, Store, Navigator and Notifier are required.
func NewFlow(cfg Config) *Flow {
	log := cfg.Logger
	if log == nil {
		log = logging.New("auth")
	}
	return &Flow{
		client: cfg.Client,
		store:  cfg.Store,
		nav:    cfg.Navigator,
		notify: cfg.Notifier,
		log:    log,
	}
}

// Login exchanges credentials for tokens, stores them and moves to the agents page.
func (f *Flow) Login(ctx context.Context, username, password string) error {
	resp, err := f.client.Login(ctx, username, password)
	if err != nil {
		f.log.Warn("login_failed", map[string]interface{}{"username": username}, err)
		f.notify.Notify(ui.Failure(failureText(err, api.ServerMessage(err), MsgLoginFailed)))
		return err
	}
	return f.signedIn(ctx, resp, MsgLoginOK)
}

// Register creates the account, stores its tokens and moves to the agents page.
// A rejected registration shows the backend's raw error body.
func (f *Flow) Register(ctx context.Context, username, email, password string) error {
	resp, err := f.client.Register(ctx, username, email, password)
	if err != nil {
		f.log.Warn("register_failed", map[string]interface{}{"username": username}, err)
		f.notify.Notify(ui.Failure(failureText(err, api.ServerBody(err), MsgRegisterFail)))
		return err
	}
	return f.signedIn(ctx, resp, MsgRegisterOK)
}

func (f *Flow) signedIn(ctx context.Context, resp *api.AuthResponse, banner string) error {
	creds := resp.Credentials()
	if err := f.store.Save(ctx, creds); err != nil {
		f.log.Error("save_credentials", nil, err)
		f.notify.Notify(ui.Failure(err.Error()))
		return fmt.Errorf("store credentials: %w", err)
	}
	f.log.Info("signed_in", map[string]interface{}{"username": creds.Username})
	f.notify.Notify(ui.Success(banner))
	f.nav.Navigate(ui.AgentsRoute)
	return nil
}

// Logout forgets everything in the credential store and returns to login.
func (f *Flow) Logout(ctx context.Context) error {
	err := f.store.Clear(ctx)
	if err != nil {
		f.log.Error("logout", nil, err)
	}
	f.nav.Navigate(ui.LoginRoute)
	return err
}

// RequireAuth sends the user to login when no access token is stored.
// It reports whether the caller may proceed.
func (f *Flow) RequireAuth(ctx context.Context) bool {
	token, err := f.store.AccessToken(ctx)
	if err != nil || token == "" {
		f.nav.Navigate(ui.LoginRoute)
		return false
	}
	return true
}

// RedirectIfAuthenticated skips the login page when a token is already stored.
// It reports whether a redirect happened.
func (f *Flow) RedirectIfAuthenticated(ctx context.Context) bool {
	token, err := f.store.AccessToken(ctx)
	if err != nil || token == "" {
		return false
	}
	f.nav.Navigate(ui.AgentsRoute)
	return true
}

// failureText picks the banner for a failed auth call: the server's text when
// it sent one, a network message for transport failures, otherwise fallback.
func failureText(err error, server, fallback string) string {
	if server != "" {
		return server
	}
	var re *api.RequestError
	if errors.As(err, &re) && re.Status == 0 {
		return MsgNetwork
	}
	return fallback
}
