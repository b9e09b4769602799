// Package chi exposes the HTTP and websocket API surface.
package chi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vibercizing/vibercizing/internal/logger"
	"github.com/vibercizing/vibercizing/internal/realtime"
	healthuc "github.com/vibercizing/vibercizing/internal/usecase/health"
	ledgeruc "github.com/vibercizing/vibercizing/internal/usecase/ledger"
	workoutuc "github.com/vibercizing/vibercizing/internal/usecase/workout"
)

const (
	insufficientRequestsMsg = "Insufficient requests. Exercise to earn more!"

	timeFormat = time.RFC3339
)

// Server implements the request API and the websocket session endpoint.
type Server struct {
	ledger      *ledgeruc.Service
	workout     *workoutuc.Service
	health      *healthuc.Service
	broadcaster *realtime.Broadcaster
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ledger *ledgeruc.Service,
	workout *workoutuc.Service,
	health *healthuc.Service,
	broadcaster *realtime.Broadcaster,
	logger *zap.Logger,
) *Server {
	return &Server{
		ledger:      ledger,
		workout:     workout,
		health:      health,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Routes mounts all endpoints on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/balance", s.getBalance)
	r.Post("/api/deduct", s.deduct)
	r.Get("/api/history", s.getHistory)
	r.Post("/api/reset", s.reset)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", s.serveWS)
}

type deductResponse struct {
	Success           bool   `json:"success"`
	RequestsRemaining *int   `json:"requests_remaining,omitempty"`
	RequestsAvailable *int   `json:"requests_available,omitempty"`
	Error             string `json:"error,omitempty"`
}

type historyResponse struct {
	Exercises []exerciseLogEntry `json:"exercises"`
	Requests  []requestLogEntry  `json:"requests"`
}

type exerciseLogEntry struct {
	ID              int64  `json:"id"`
	ExerciseType    string `json:"exercise_type"`
	RepsCompleted   int    `json:"reps_completed"`
	RequestsAwarded int    `json:"requests_awarded"`
	CreatedAt       string `json:"created_at"`
}

type requestLogEntry struct {
	ID               int64  `json:"id"`
	RequestsDeducted int    `json:"requests_deducted"`
	Blocked          bool   `json:"blocked"`
	CreatedAt        string `json:"created_at"`
}

type resetResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// getBalance handles GET /api/balance.
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Balance(r.Context())
	if err != nil {
		s.serverError(w, r, "get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// deduct handles POST /api/deduct. Refusal is a normal business outcome
// and still answers 200 with a structured failure payload.
func (s *Server) deduct(w http.ResponseWriter, r *http.Request) {
	result, err := s.ledger.Deduct(r.Context())
	if err != nil {
		s.serverError(w, r, "deduct request", err)
		return
	}

	available := result.Balance.RequestsAvailable
	if result.Succeeded {
		writeJSON(w, http.StatusOK, deductResponse{
			Success:           true,
			RequestsRemaining: &available,
		})
		return
	}
	writeJSON(w, http.StatusOK, deductResponse{
		Success:           false,
		RequestsAvailable: &available,
		Error:             insufficientRequestsMsg,
	})
}

// getHistory handles GET /api/history.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.ledger.History(r.Context())
	if err != nil {
		s.serverError(w, r, "get history", err)
		return
	}

	resp := historyResponse{
		Exercises: make([]exerciseLogEntry, 0, len(history.Exercises)),
		Requests:  make([]requestLogEntry, 0, len(history.Requests)),
	}
	for _, e := range history.Exercises {
		resp.Exercises = append(resp.Exercises, exerciseLogEntry{
			ID:              e.ID,
			ExerciseType:    e.ExerciseType,
			RepsCompleted:   e.RepsCompleted,
			RequestsAwarded: e.RequestsAwarded,
			CreatedAt:       e.CreatedAt.Format(timeFormat),
		})
	}
	for _, e := range history.Requests {
		resp.Requests = append(resp.Requests, requestLogEntry{
			ID:               e.ID,
			RequestsDeducted: e.RequestsDeducted,
			Blocked:          e.Blocked,
			CreatedAt:        e.CreatedAt.Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// reset handles POST /api/reset.
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		s.serverError(w, r, "reset ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Success: true})
}

// healthz handles GET /healthz.
func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// serverError answers infrastructure failures; refusals never reach here.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context()).Error(op+" failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ledger unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
