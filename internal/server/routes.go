package server

import "github.com/go-chi/chi/v5"

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		r.Post("/auth/register", s.handleAuthRegister)
		r.Post("/auth/token", s.handleAuthToken)

		// Price history is public.
		r.Get("/tickers/{tickers}", s.handleTickerHistory)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/auth/me", s.handleAuthMe)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", s.handleUserGet)
				r.Put("/", s.handleUserUpdate)
				r.Delete("/", s.handleUserDelete)
			})

			r.Route("/portfolios", func(r chi.Router) {
				r.Get("/", s.handlePortfolioList)
				r.Post("/", s.handlePortfolioCreate)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handlePortfolioGet)
					r.Put("/", s.handlePortfolioUpdate)
					r.Delete("/", s.handlePortfolioDelete)
					r.Get("/valuation", s.handlePortfolioValuation)
					r.Get("/chart.png", s.handlePortfolioChart)
					r.Get("/trades", s.handlePortfolioTrades)
					r.Get("/trades.csv", s.handlePortfolioTradesCSV)
				})
			})

			r.Route("/trades", func(r chi.Router) {
				r.Get("/", s.handleTradeList)
				r.Post("/", s.handleTradeCreate)
				r.Get("/{id}", s.handleTradeGet)
				r.Put("/{id}", s.handleTradeUpdate)
				r.Delete("/{id}", s.handleTradeDelete)
			})
		})
	})
}
