// Package httpserver exposes the trade ledger over HTTP. Responses use the
// {"success": ..., "data"/"message": ...} envelope; store and arithmetic
// failures are reported with sanitized messages, never raw error text.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tradeledger/internal/app"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Addr    string
	Service *app.LedgerService
	Logger  ports.Logger
}

// Server wraps the stdlib HTTP server around the ledger service.
type Server struct {
	httpServer *http.Server
	svc        *app.LedgerService
	logger     ports.Logger
}

// New creates the HTTP server with all routes registered.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for HTTP server")
	}
	s := &Server{svc: cfg.Service, logger: cfg.Logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /trades", s.handleListTrades)
	mux.HandleFunc("POST /trades", s.handleCreateTrade)
	mux.HandleFunc("GET /trades/unaggregated", s.handleListUnaggregated)
	mux.HandleFunc("GET /trades/{id}", s.handleGetTrade)
	mux.HandleFunc("PATCH /trades/{id}", s.handleEditTrade)
	mux.HandleFunc("DELETE /trades/{id}", s.handleDeleteTrade)
	mux.HandleFunc("POST /trades/{id}/aggregate", s.handleAggregateTrade)
	mux.HandleFunc("GET /positions", s.handleListPositions)
	mux.HandleFunc("GET /positions/{id}/allocations", s.handleListAllocations)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s, nil
}

// Start begins serving. It blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// --- Handlers ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondData(w, http.StatusOK, "trade ledger up")
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.svc.ListTrades(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, trades)
}

// handleGetTrade returns the trades filtered by id as a (possibly empty)
// array, mirroring the list shape. A non-integer id is the caller's fault.
func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid Trade Id: %s. Must be an integer.", r.PathValue("id")))
		return
	}
	trade, err := s.svc.GetTrade(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data := []*domain.Trade{}
	if trade != nil {
		data = append(data, trade)
	}
	s.respondData(w, http.StatusOK, data)
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var trade domain.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		s.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recorded, err := s.svc.RecordTrade(r.Context(), &trade)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusCreated, recorded)
}

// handleEditTrade amends symbol/notes on the ledger row only; it never
// re-triggers aggregation, so positions opened under the old symbol keep it.
func (s *Server) handleEditTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid Trade Id: %s. Must be an integer.", r.PathValue("id")))
		return
	}
	var correction domain.TradeCorrection
	if err := json.NewDecoder(r.Body).Decode(&correction); err != nil {
		s.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.svc.CorrectTrade(r.Context(), id, correction); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid Trade Id: %s. Must be an integer.", r.PathValue("id")))
		return
	}
	if err := s.svc.DeleteTrade(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK)
}

func (s *Server) handleListUnaggregated(w http.ResponseWriter, r *http.Request) {
	trades, err := s.svc.ListUnaggregated(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, trades)
}

func (s *Server) handleAggregateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid Trade Id: %s. Must be an integer.", r.PathValue("id")))
		return
	}
	if err := s.svc.AggregateTrade(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSuccess(w, http.StatusOK)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.ListPositions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, positions)
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid Position Id: %s. Must be an integer.", r.PathValue("id")))
		return
	}
	allocs, err := s.svc.ListAllocations(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondData(w, http.StatusOK, allocs)
}

// --- Response helpers ---

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) respondData(w http.ResponseWriter, status int, data interface{}) {
	s.writeJSON(w, status, envelope{Success: true, Data: data})
}

func (s *Server) respondSuccess(w http.ResponseWriter, status int) {
	s.writeJSON(w, status, envelope{Success: true})
}

func (s *Server) respondMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{Success: false, Message: msg})
}

// respondError maps application errors to status codes. Validation problems
// echo their detail back to the caller; server-side failures get a safe,
// non-leaking message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrValidation):
		s.respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrNotFound):
		s.respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ports.ErrConflict):
		s.respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, ports.ErrAggregationFailed):
		s.logger.Error(r.Context(), err, "Trade recorded but aggregation failed")
		s.respondMessage(w, http.StatusInternalServerError,
			"trade recorded but position aggregation failed; the trade is queued as unaggregated")
	default:
		s.logger.Error(r.Context(), err, "Request failed", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		s.respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(context.Background(), err, "Failed to encode response")
	}
}
