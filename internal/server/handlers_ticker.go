package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleTickerHistory returns price history for a comma separated batch.
// GET /api/tickers/AAPL,MSFT?period=5d&interval=1d
func (s *Server) handleTickerHistory(w http.ResponseWriter, r *http.Request) {
	tickers := strings.Split(chi.URLParam(r, "tickers"), ",")

	history, err := s.app.MarketService.TickerHistory(r.Context(), tickers, rangeFromQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, history)
}
