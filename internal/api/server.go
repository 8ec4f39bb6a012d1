// Package api exposes the tracker's state surface over HTTP for a
// presentation layer. The API is read/submit only — all task state
// remains derived from ledger reads.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskmirror/taskmirror/internal/app/notify"
	"github.com/taskmirror/taskmirror/internal/app/tracker"
	"github.com/taskmirror/taskmirror/internal/domain"
)

// Server is the taskmirror HTTP API server.
type Server struct {
	tracker        *tracker.Tracker
	notify         *notify.Center
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(tr *tracker.Tracker, nc *notify.Center) *Server {
	return &Server{tracker: tr, notify: nc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks/fetch", s.handleFetchRange)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Get("/tasks/{id}/capabilities", s.handleCapabilities)
		r.Post("/tasks/{id}/action", s.handleAction)
		r.Post("/tasks/{id}/cancel", s.handleCancel)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/ack", s.handleAckNotification)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/role", s.handleSetRole)
			r.Post("/operator", s.handleSetOperator)
			r.Post("/quorum", s.handleSetQuorum)
			r.Post("/deposit", s.handleDeposit)
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── State surface ──────────────────────────────────────────────────────────

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"loading": s.tracker.Loading(),
		"error":   s.tracker.Err(),
		"task":    s.tracker.Task(),
		"tasks":   s.tracker.Tasks(),
		"caller":  s.tracker.Caller(),
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Tasks())
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := s.tracker.FetchOne(r.Context(), id); err != nil {
		writeError(w, http.StatusBadGateway, s.tracker.Err())
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Task())
}

// fetchRangeRequest asks for a batched range read.
type fetchRangeRequest struct {
	Start         int64 `json:"start"`
	End           int64 `json:"end"`
	ScopeToCaller bool  `json:"scopeToCaller"`
}

func (s *Server) handleFetchRange(w http.ResponseWriter, r *http.Request) {
	var req fetchRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.tracker.FetchRange(r.Context(), req.Start, req.End, req.ScopeToCaller, nil); err != nil {
		writeError(w, http.StatusBadGateway, s.tracker.Err())
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Tasks())
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	// Capabilities gate which actions the presentation layer shows for
	// a task; the check itself is per-identity, not per-task.
	id := s.tracker.Caller()
	if q := r.URL.Query().Get("identity"); q != "" {
		parsed, err := domain.ParseIdentity(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		id = parsed
	}

	caps, err := s.tracker.CapabilitiesOf(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "role check failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// ─── Submissions ────────────────────────────────────────────────────────────

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := s.tracker.SubmitAction(r.Context(), id); err != nil {
		writeError(w, http.StatusConflict, s.tracker.Err())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := s.tracker.SubmitCancel(r.Context(), id); err != nil {
		writeError(w, http.StatusConflict, s.tracker.Err())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.notify.Recent(limit))
}

func (s *Server) handleAckNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notify.Acknowledge(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// ─── Administration ─────────────────────────────────────────────────────────

type setRoleRequest struct {
	RoleID       string `json:"roleId"`
	Authorized   string `json:"authorizedAddress"`
	IsAuthorized bool   `json:"isAuthorized"`
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	roleID, err := domain.ParseRoleID(req.RoleID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	authorized, err := domain.ParseIdentity(req.Authorized)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tracker.SetRole(r.Context(), roleID, authorized, req.IsAuthorized); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

type setOperatorRequest struct {
	InterfaceID  string `json:"interfaceId"`
	RoleID       string `json:"roleId"`
	IsAuthorized bool   `json:"isAuthorized"`
}

func (s *Server) handleSetOperator(w http.ResponseWriter, r *http.Request) {
	var req setOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	interfaceID, err := domain.ParseInterfaceID(req.InterfaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	roleID, err := domain.ParseRoleID(req.RoleID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tracker.SetOperator(r.Context(), interfaceID, roleID, req.IsAuthorized); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

type setQuorumRequest struct {
	Quorum string `json:"quorum"`
}

func (s *Server) handleSetQuorum(w http.ResponseWriter, r *http.Request) {
	var req setQuorumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	quorum, err := domain.ParseQuorum(req.Quorum)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tracker.SetMinQuorum(r.Context(), quorum); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

type depositRequest struct {
	RoleID string `json:"roleId"`
	Amount string `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	roleID, err := domain.ParseRoleID(req.RoleID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.tracker.Deposit(r.Context(), roleID, amount); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "initiated"})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
