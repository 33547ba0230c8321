// Package devbackend is an in-memory implementation of the chat-agent HTTP
// contract. It performs no inference: the assistant echoes the user message.
// Tests mount it behind httptest; `agentchat dev-backend` serves it locally.
package devbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joss/agentchat/internal/domain"
)

// Responder produces the assistant reply for a chat turn.
type Responder func(agent domain.Agent, history []domain.ChatMessage, message string) (string, error)

// EchoResponder replies with the user's message.
func EchoResponder(_ domain.Agent, _ []domain.ChatMessage, message string) (string, error) {
	return "Echo: " + message, nil
}

// Fault short-circuits a request with a canned status and body.
type Fault struct {
	Status int
	Body   string
}

type account struct {
	username string
	email    string
	password string
}

type agentRecord struct {
	domain.Agent
	owner string
}

type fileRecord struct {
	domain.UploadedFile
	agentID int
}

// Server holds all backend state behind one mutex.
type Server struct {
	mu        sync.Mutex
	accounts  map[string]account
	tokens    map[string]string // access token -> username
	agents    map[int]*agentRecord
	messages  map[int][]domain.ChatMessage
	files     []fileRecord
	nextID    int
	responder Responder
	faults    map[string]Fault
	requests  []string
	now       func() time.Time
}

// New returns an empty backend using EchoResponder.
func New() *Server {
	return &Server{
		accounts:  make(map[string]account),
		tokens:    make(map[string]string),
		agents:    make(map[int]*agentRecord),
		messages:  make(map[int][]domain.ChatMessage),
		faults:    make(map[string]Fault),
		nextID:    1,
		responder: EchoResponder,
		now:       time.Now,
	}
}

// SetResponder replaces the assistant reply function.
func (s *Server) SetResponder(r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
}

// InjectFault makes every request matching "METHOD /path/" fail with f.
func (s *Server) InjectFault(method, path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = f
}

// ClearFaults removes all injected faults.
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]Fault)
}

// Requests returns every request seen so far as "METHOD /path/".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests returns how many requests had the given method and path prefix.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, method+" "+pathPrefix) {
			n++
		}
	}
	return n
}

// AddUser registers an account and returns a valid access token for it.
func (s *Server) AddUser(username, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{username: username, password: password}
	return s.issueLocked(username)
}

// AddAgent creates an agent owned by username and returns it.
func (s *Server) AddAgent(username string, in domain.AgentInput) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAgentLocked(username, in.Normalize())
}

// Messages returns the stored history of an agent.
func (s *Server) Messages(agentID int) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages[agentID]...)
}

// Handler returns the router serving the /api contract.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login/", s.handleLogin)
		r.Post("/register/", s.handleRegister)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/agents/", s.handleListAgents)
			r.Post("/agents/", s.handleCreateAgent)
			r.Get("/agents/{id}/", s.handleGetAgent)
			r.Delete("/agents/{id}/", s.handleDeleteAgent)
			r.Post("/chat/", s.handleChat)
			r.Get("/chat/history/{id}/", s.handleHistory)
			r.Post("/upload/", s.handleUpload)
			r.Get("/files/{id}/", s.handleFiles)
		})
	})
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type ctxKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, key)
		fault, faulted := s.faults[key]
		s.mu.Unlock()

		if faulted {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = w.Write([]byte(fault.Body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		username, valid := s.tokens[token]
		s.mu.Unlock()
		if !ok || !valid {
			JSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), username)))
	})
}

func (s *Server) issueLocked(username string) string {
	token := uuid.NewString()
	s.tokens[token] = username
	return token
}

func (s *Server) authResponse(username, email string) map[string]interface{} {
	access := s.issueLocked(username)
	return map[string]interface{}{
		"user":    domain.User{Username: username, Email: email},
		"access":  access,
		"refresh": uuid.NewString(),
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Username]
	if !ok || acct.password != req.Password {
		Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	JSON(w, http.StatusOK, s.authResponse(acct.username, acct.email))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fieldErrors := map[string][]string{}
	if strings.TrimSpace(req.Username) == "" {
		fieldErrors["username"] = []string{"This field may not be blank."}
	}
	if req.Password == "" {
		fieldErrors["password"] = []string{"This field may not be blank."}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[req.Username]; taken {
		fieldErrors["username"] = []string{"A user with that username already exists."}
	}
	if len(fieldErrors) > 0 {
		JSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	s.accounts[req.Username] = account{username: req.Username, email: req.Email, password: req.Password}
	JSON(w, http.StatusCreated, s.authResponse(req.Username, req.Email))
}

func (s *Server) createAgentLocked(owner string, in domain.AgentInput) domain.Agent {
	now := s.now().UTC()
	a := domain.Agent{
		ID:           s.nextID,
		Name:         in.Name,
		SystemPrompt: in.SystemPrompt,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	if in.Description != "" {
		desc := in.Description
		a.Description = &desc
	}
	s.nextID++
	s.agents[a.ID] = &agentRecord{Agent: a, owner: owner}
	return a
}

// ownedAgentLocked resolves {id} to an agent owned by the caller.
func (s *Server) ownedAgentLocked(r *http.Request, raw string) (*agentRecord, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	rec, ok := s.agents[id]
	if !ok || rec.owner != userFrom(r.Context()) {
		return nil, false
	}
	return rec, true
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	s.mu.Lock()
	var out []domain.Agent
	for _, rec := range s.agents {
		if rec.owner == user {
			out = append(out, rec.Agent)
		}
	}
	s.mu.Unlock()

	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if out == nil {
		out = []domain.Agent{}
	}
	JSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var in domain.AgentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in = in.Normalize()
	if in.Name == "" {
		JSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	a := s.createAgentLocked(userFrom(r.Context()), in)
	s.mu.Unlock()
	JSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, ok := s.ownedAgentLocked(r, chi.URLParam(r, "id"))
	s.mu.Unlock()
	if !ok {
		JSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	JSON(w, http.StatusOK, rec.Agent)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedAgentLocked(r, chi.URLParam(r, "id"))
	if !ok {
		JSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	delete(s.agents, rec.ID)
	delete(s.messages, rec.ID)
	kept := s.files[:0]
	for _, f := range s.files {
		if f.agentID != rec.ID {
			kept = append(kept, f)
		}
	}
	s.files = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID int    `json:"agent_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		JSON(w, http.StatusBadRequest, map[string][]string{"message": {"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	rec, ok := s.ownedAgentLocked(r, strconv.Itoa(req.AgentID))
	if !ok {
		s.mu.Unlock()
		Error(w, http.StatusNotFound, "Agent not found")
		return
	}
	now := s.now().UTC()
	s.messages[rec.ID] = append(s.messages[rec.ID], domain.ChatMessage{Role: domain.RoleUser, Content: req.Message, CreatedAt: &now})
	history := append([]domain.ChatMessage(nil), s.messages[rec.ID]...)
	agent := rec.Agent
	respond := s.responder
	s.mu.Unlock()

	reply, err := respond(agent, history, req.Message)
	if err != nil {
		Error(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get AI response: %v", err))
		return
	}

	s.mu.Lock()
	now = s.now().UTC()
	s.messages[rec.ID] = append(s.messages[rec.ID], domain.ChatMessage{Role: domain.RoleAssistant, Content: reply, CreatedAt: &now})
	s.mu.Unlock()

	JSON(w, http.StatusOK, map[string]interface{}{"response": reply, "agent_id": req.AgentID})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedAgentLocked(r, chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "Agent not found")
		return
	}
	out := s.messages[rec.ID]
	if out == nil {
		out = []domain.ChatMessage{}
	}
	JSON(w, http.StatusOK, out)
}

// maxUploadBytes bounds multipart parsing memory.
const maxUploadBytes = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "agent_id and file are required")
		return
	}
	file, header, err := r.FormFile("file")
	agentID := r.FormValue("agent_id")
	if err != nil || agentID == "" {
		Error(w, http.StatusBadRequest, "agent_id and file are required")
		return
	}
	file.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedAgentLocked(r, agentID)
	if !ok {
		Error(w, http.StatusNotFound, "Agent not found")
		return
	}
	now := s.now().UTC()
	f := fileRecord{
		UploadedFile: domain.UploadedFile{ID: s.nextID, Filename: header.Filename, UploadedAt: &now},
		agentID:      rec.ID,
	}
	s.nextID++
	s.files = append(s.files, f)
	JSON(w, http.StatusCreated, f.UploadedFile)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.ownedAgentLocked(r, chi.URLParam(r, "id"))
	if !ok {
		Error(w, http.StatusNotFound, "Agent not found")
		return
	}
	out := []domain.UploadedFile{}
	// Newest first.
	for i := len(s.files) - 1; i >= 0; i-- {
		if s.files[i].agentID == rec.ID {
			out = append(out, s.files[i].UploadedFile)
		}
	}
	JSON(w, http.StatusOK, out)
}
