package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/folio/internal/models"
)

// handleTradeList lists the caller's trades, optionally for one portfolio.
// GET /api/trades?portfolio_id=...
func (s *Server) handleTradeList(w http.ResponseWriter, r *http.Request) {
	trades, err := s.app.TradeService.ListTrades(r.Context(), currentUserID(r), r.URL.Query().Get("portfolio_id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}
	WriteData(w, http.StatusOK, trades)
}

// handleTradeCreate records a trade and returns it with the updated portfolio.
func (s *Server) handleTradeCreate(w http.ResponseWriter, r *http.Request) {
	var req models.TradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.TradeService.RecordTrade(r.Context(), currentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, result)
}

func (s *Server) handleTradeGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.app.TradeService.GetTrade(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, t)
}

func (s *Server) handleTradeUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.TradeUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	t, err := s.app.TradeService.UpdateTrade(r.Context(), currentUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, t)
}

func (s *Server) handleTradeDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.TradeService.DeleteTrade(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
