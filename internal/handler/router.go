package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ugaemi/bombarena-server/internal/round"
	"github.com/ugaemi/bombarena-server/internal/session"
)

const (
	defaultRoundLimit = 20
	maxRoundLimit     = 100
)

// StatusProvider reports the local session state.
type StatusProvider interface {
	Snapshot() session.Snapshot
}

// RoundReader reads finished rounds.
type RoundReader interface {
	FindRound(ctx context.Context, id string) (*round.Round, error)
	RecentRounds(ctx context.Context, limit int) ([]*round.Round, error)
}

// Router serves the host's HTTP endpoints next to the peer socket.
type Router struct {
	status StatusProvider
	rounds RoundReader
}

// NewRouter creates a new HTTP router.
func NewRouter(status StatusProvider, rounds RoundReader) *Router {
	return &Router{status: status, rounds: rounds}
}

// Routes mounts the endpoints on r.
func (rt *Router) Routes(r chi.Router) {
	r.Get("/health", rt.handleHealth)
	r.Get("/status", rt.handleStatus)
	r.Route("/rounds", func(r chi.Router) {
		r.Get("/", rt.handleListRounds)
		r.Get("/{id}", rt.handleGetRound)
	})
}

func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.status.Snapshot())
}

func (rt *Router) handleListRounds(w http.ResponseWriter, r *http.Request) {
	limit := defaultRoundLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRoundLimit)
	}

	rounds, err := rt.rounds.RecentRounds(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list rounds", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list rounds")
		return
	}
	if rounds == nil {
		rounds = []*round.Round{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (rt *Router) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := rt.rounds.FindRound(r.Context(), id)
	if err != nil {
		slog.Error("failed to find round", "round", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to find round")
		return
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
