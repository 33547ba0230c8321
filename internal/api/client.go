// Package api is the typed client for the chat-agent HTTP contract.
// Every authenticated call carries a bearer token obtained from a TokenSource;
// a 401 from such a call is reported as ErrUnauthenticated.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joss/agentchat/internal/domain"
	"github.com/joss/agentchat/internal/logging"
)

// TokenSource supplies the current access token. An empty token means the
// user is not logged in.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) { return string(t), nil }

// Client talks to one backend.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	log    *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient swaps the underlying transport client (tests use httptest's).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		timeout := c.http.GetClient().Timeout
		c.http = resty.NewWithClient(hc).SetBaseURL(base)
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// New creates a client for the backend rooted at baseURL (e.g. http://host:8000).
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		http:   resty.New().SetBaseURL(strings.TrimRight(baseURL, "/") + "/api"),
		tokens: tokens,
		log:    logging.New("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c
}

// BaseURL returns the API root including the /api suffix.
func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

// call describes one request. With lenient set, a 2xx body that does not
// decode into out is ignored instead of failing the call.
type call struct {
	op      string
	method  string
	path    string
	authed  bool
	body    interface{}
	out     interface{}
	lenient bool
	prep    func(*resty.Request)
}

func (c *Client) do(ctx context.Context, cl call) error {
	ctx, reqID := logging.EnsureRequestID(ctx)
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)

	if cl.authed {
		token := ""
		if c.tokens != nil {
			var err error
			if token, err = c.tokens.AccessToken(ctx); err != nil {
				return &RequestError{Op: cl.op, Err: fmt.Errorf("read credentials: %w", err)}
			}
		}
		if token == "" {
			return fmt.Errorf("%s: %w", cl.op, ErrUnauthenticated)
		}
		req.SetAuthToken(token)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}
	if cl.prep != nil {
		cl.prep(req)
	}

	res, err := req.Execute(cl.method, cl.path)
	extra := map[string]interface{}{
		"op":         cl.op,
		"method":     cl.method,
		"path":       cl.path,
		"request_id": reqID,
	}
	if err != nil {
		c.log.TimedEvent("request", start, extra, err)
		return &RequestError{Op: cl.op, Err: err}
	}
	extra["status"] = res.StatusCode()
	c.log.TimedEvent("request", start, extra, nil)

	if cl.authed && res.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", cl.op, ErrUnauthenticated)
	}
	if !res.IsSuccess() {
		return &RequestError{
			Op:      cl.op,
			Status:  res.StatusCode(),
			Message: errorMessage(res.Body()),
			Body:    res.Body(),
		}
	}

	if cl.out == nil || len(bytes.TrimSpace(res.Body())) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body(), cl.out); err != nil {
		if cl.lenient {
			c.log.Debug("ignored undecodable body", extra)
			return nil
		}
		return &RequestError{Op: cl.op, Status: res.StatusCode(), Body: res.Body(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    domain.User `json:"user"`
}

// Credentials converts the response into storable credentials.
func (r AuthResponse) Credentials() domain.Credentials {
	return domain.Credentials{Access: r.Access, Refresh: r.Refresh, Username: r.User.Username}
}

// Login exchanges username and password for tokens.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/login/",
		body: map[string]string{"username": username, "password": password},
		out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns tokens for it.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, call{
		op: "register", method: http.MethodPost, path: "/register/",
		body: map[string]string{"username": username, "email": email, "password": password},
		out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAgents returns the caller's agents, newest first.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var out []domain.Agent
	err := c.do(ctx, call{op: "list agents", method: http.MethodGet, path: "/agents/", authed: true, out: &out})
	return out, err
}

// CreateAgent creates an agent from in.
func (c *Client) CreateAgent(ctx context.Context, in domain.AgentInput) (*domain.Agent, error) {
	var out domain.Agent
	err := c.do(ctx, call{op: "create agent", method: http.MethodPost, path: "/agents/", authed: true, body: in, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAgent fetches one agent.
func (c *Client) GetAgent(ctx context.Context, id int) (*domain.Agent, error) {
	var out domain.Agent
	err := c.do(ctx, call{op: "get agent", method: http.MethodGet, path: agentPath(id), authed: true, out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAgent removes an agent together with its history and files.
func (c *Client) DeleteAgent(ctx context.Context, id int) error {
	return c.do(ctx, call{op: "delete agent", method: http.MethodDelete, path: agentPath(id), authed: true})
}

// ChatHistory returns an agent's messages in chronological order.
func (c *Client) ChatHistory(ctx context.Context, agentID int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := c.do(ctx, call{
		op: "chat history", method: http.MethodGet,
		path:   "/chat/history/" + strconv.Itoa(agentID) + "/",
		authed: true, out: &out,
	})
	return out, err
}

// SendChat posts one user message and returns the assistant's reply.
func (c *Client) SendChat(ctx context.Context, agentID int, message string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	err := c.do(ctx, call{
		op: "send chat", method: http.MethodPost, path: "/chat/", authed: true,
		body: map[string]interface{}{"agent_id": agentID, "message": message},
		out:  &out,
	})
	if err != nil {
		return "", err
	}
	return out.Response, nil
}

// UploadFile sends r as a multipart "file" field for the agent. Any 2xx is a
// success; the returned file is nil when the server sends no usable record.
func (c *Client) UploadFile(ctx context.Context, agentID int, filename string, r io.Reader) (*domain.UploadedFile, error) {
	var out domain.UploadedFile
	err := c.do(ctx, call{
		op: "upload file", method: http.MethodPost, path: "/upload/", authed: true,
		out: &out, lenient: true,
		prep: func(req *resty.Request) {
			req.SetFileReader("file", filename, r).
				SetFormData(map[string]string{"agent_id": strconv.Itoa(agentID)})
		},
	})
	if err != nil || out.Filename == "" {
		return nil, err
	}
	return &out, nil
}

// ListFiles returns the files uploaded for an agent.
func (c *Client) ListFiles(ctx context.Context, agentID int) ([]domain.UploadedFile, error) {
	var out []domain.UploadedFile
	err := c.do(ctx, call{
		op: "list files", method: http.MethodGet,
		path:   "/files/" + strconv.Itoa(agentID) + "/",
		authed: true, out: &out,
	})
	return out, err
}

// Probe sends an anonymous request to the agent list and returns the HTTP
// status. Any status means the backend is reachable; a healthy one answers 401.
func (c *Client) Probe(ctx context.Context) (int, error) {
	ctx, reqID := logging.EnsureRequestID(ctx)
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID).
		Get("/agents/")
	if err != nil {
		return 0, &RequestError{Op: "probe", Err: err}
	}
	return res.StatusCode(), nil
}

func agentPath(id int) string {
	return "/agents/" + strconv.Itoa(id) + "/"
}
