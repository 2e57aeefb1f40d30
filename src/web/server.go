package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	agent "github.com/hivegate/hive-agent"
	"github.com/hivegate/hive-agent/src/hive"
)

//go:embed static
var staticFS embed.FS

// Server is the HTTP front end: login against the Hive gateway, chat turns,
// session reset and logout. Each web session owns its own Hive token, which
// travels per request via the context, so one agent serves all users.
type Server struct {
	agent       *agent.Agent
	hiveBaseURL string
	loginNeeded bool
	logger      *slog.Logger

	mu     sync.Mutex
	tokens map[string]string // session key -> hive token
}

type Config struct {
	Agent       *agent.Agent
	HiveBaseURL string
	// RequireLogin gates /api/chat behind /api/login. Deployments with a
	// static gateway token leave it off.
	RequireLogin bool
	Logger       *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		agent:       cfg.Agent,
		hiveBaseURL: cfg.HiveBaseURL,
		loginNeeded: cfg.RequireLogin,
		logger:      logger,
		tokens:      make(map[string]string),
	}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.Handle("GET /", http.FileServer(staticRoot()))
	return mux
}

func staticRoot() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return http.FS(sub)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type chatRequest struct {
	SessionKey string `json:"session_key"`
	Message    string `json:"message"`
}

type sessionRequest struct {
	SessionKey string `json:"session_key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := hive.Login(r.Context(), s.hiveBaseURL, req.Username, req.Password, 10*time.Second)
	if err != nil {
		s.logger.Warn("login failed", "username", req.Username, "error", err)
		writeError(w, http.StatusUnauthorized, "login failed")
		return
	}

	sess := s.agent.Sessions().GetOrCreate("")
	s.mu.Lock()
	s.tokens[sess.Key()] = token
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"session_key": sess.Key()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	token, authed := s.tokens[req.SessionKey]
	s.mu.Unlock()
	if authed {
		ctx = hive.ContextWithToken(ctx, token)
	} else if s.loginNeeded {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	reply, err := s.agent.HandleTurn(ctx, req.SessionKey, req.Message)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_key": reply.SessionKey,
		"answer":      reply.Answer,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.agent.ResetSession(req.SessionKey)
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// handleLogout is idempotent: logging out an unknown or already removed
// session still succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mu.Lock()
	delete(s.tokens, req.SessionKey)
	s.mu.Unlock()
	s.agent.Sessions().Remove(req.SessionKey)
	writeJSON(w, http.StatusOK, map[string]any{"logged_out": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
