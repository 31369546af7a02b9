// Package api exposes the management HTTP surface: lifecycle control,
// wallet CRUD, history queries, balances, and health/metrics.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ledgerwave/Solana-Trading-Bot/internal/bot"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/domain"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/observability"
	"github.com/ledgerwave/Solana-Trading-Bot/internal/storage"
)

// Server holds the HTTP handlers over the bot manager.
type Server struct {
	mgr    *bot.Manager
	logger *log.Logger
}

// NewServer creates the management API server.
func NewServer(mgr *bot.Manager, logger *log.Logger) *Server {
	return &Server{mgr: mgr, logger: logger}
}

// Routes builds the HTTP handler for all management endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /stop", s.handleStop)

	mux.HandleFunc("GET /wallets", s.handleListWallets)
	mux.HandleFunc("POST /wallets", s.handleAddWallet)
	mux.HandleFunc("GET /wallets/{address}", s.handleGetWallet)
	mux.HandleFunc("PATCH /wallets/{address}", s.handleUpdateWallet)
	mux.HandleFunc("DELETE /wallets/{address}", s.handleDeleteWallet)
	mux.HandleFunc("GET /wallets/{address}/balance", s.handleWalletBalance)
	mux.HandleFunc("GET /bot/balance", s.handleBotBalance)

	mux.HandleFunc("GET /transactions", s.handleTransactions)
	mux.HandleFunc("GET /stats", s.handleStats)

	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.mgr.Stop()
	s.writeJSON(w, http.StatusOK, s.mgr.Status())
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.mgr.ListWallets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if wallets == nil {
		wallets = []domain.WatchedAccount{}
	}
	s.writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleAddWallet(w http.ResponseWriter, r *http.Request) {
	var a domain.WatchedAccount
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.mgr.AddWallet(r.Context(), a); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	a, err := s.mgr.GetWallet(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	var upd domain.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	a, err := s.mgr.UpdateWallet(r.Context(), r.PathValue("address"), upd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.RemoveWallet(r.Context(), r.PathValue("address")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BalanceResponse reports an account's native balance.
type BalanceResponse struct {
	Address  string  `json:"address"`
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	lamports, err := s.mgr.WalletBalance(r.Context(), address)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, BalanceResponse{
		Address:  address,
		Lamports: lamports,
		SOL:      float64(lamports) / domain.LamportsPerSOL,
	})
}

func (s *Server) handleBotBalance(w http.ResponseWriter, r *http.Request) {
	lamports, err := s.mgr.BotBalance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, BalanceResponse{
		Address:  s.mgr.Status().BotAddress,
		Lamports: lamports,
		SOL:      float64(lamports) / domain.LamportsPerSOL,
	})
}

// DefaultHistoryLimit bounds unpaged /transactions responses.
const DefaultHistoryLimit = 100

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.OutcomeFilter{
		Account: q.Get("account"),
		Kind:    domain.TxKind(q.Get("kind")),
		Status:  domain.OutcomeStatus(q.Get("status")),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit"), DefaultHistoryLimit); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
		return
	}
	if filter.Offset, err = intParam(q.Get("offset"), 0); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid offset"))
		return
	}

	outcomes, err := s.mgr.Transactions(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []domain.MirrorOutcome{}
	}
	s.writeJSON(w, http.StatusOK, outcomes)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.mgr.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return n, nil
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps domain and storage errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAccount):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError && s.logger != nil {
		s.logger.Printf("[api] internal error: %v", err)
	}
	s.writeJSON(w, status, errorBody(err.Error()))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.logger != nil {
		s.logger.Printf("[api] encode response: %v", err)
	}
}
