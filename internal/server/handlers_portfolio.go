package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/folio/internal/models"
)

func (s *Server) handlePortfolioList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := s.app.PortfolioService.ListPortfolios(r.Context(), currentUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}
	WriteData(w, http.StatusOK, portfolios)
}

func (s *Server) handlePortfolioCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePortfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	p, err := s.app.PortfolioService.CreatePortfolio(r.Context(), currentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusCreated, p)
}

func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.PortfolioService.GetPortfolio(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, p)
}

func (s *Server) handlePortfolioUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePortfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	p, err := s.app.PortfolioService.UpdatePortfolio(r.Context(), currentUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, p)
}

func (s *Server) handlePortfolioDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.PortfolioService.DeletePortfolio(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePortfolioValuation returns the value curve for a portfolio.
// GET /api/portfolios/{id}/valuation?period=1mo | ?start=2024-01-01&interval=1d
func (s *Server) handlePortfolioValuation(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.ValuationService.Value(r.Context(), currentUserID(r), chi.URLParam(r, "id"), rangeFromQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteData(w, http.StatusOK, result)
}

func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	png, err := s.app.ValuationService.Chart(r.Context(), currentUserID(r), chi.URLParam(r, "id"), rangeFromQuery(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handlePortfolioTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.app.TradeService.ListTrades(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if trades == nil {
		trades = []*models.Trade{}
	}
	WriteData(w, http.StatusOK, trades)
}

var tradeCSVHeader = []string{
	"trade_id", "portfolio_id", "asset_name", "action", "price", "quantity", "trade_date", "description",
}

// handlePortfolioTradesCSV exports a portfolio's trades as CSV.
func (s *Server) handlePortfolioTradesCSV(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "id")
	trades, err := s.app.TradeService.ListTrades(r.Context(), currentUserID(r), portfolioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trades-%s.csv"`, portfolioID))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(tradeCSVHeader); err != nil {
		s.logger.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("CSV header write failed")
		return
	}
	for _, t := range trades {
		row := []string{
			t.TradeID,
			t.PortfolioID,
			csvSafe(t.AssetName),
			string(t.Action),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			strconv.FormatInt(t.Quantity, 10),
			t.TradeDate.UTC().Format(time.RFC3339),
			csvSafe(t.Description),
		}
		if err := cw.Write(row); err != nil {
			s.logger.Warn().Err(err).
				Str("portfolio_id", portfolioID).
				Str("trade_id", t.TradeID).
				Msg("CSV row write failed")
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("CSV export truncated")
	}
}

// csvSafe neutralises values a spreadsheet would evaluate as a formula.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
