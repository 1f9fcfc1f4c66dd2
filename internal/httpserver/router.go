package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sandeep-jaiswar/core/internal/auth"
	"github.com/sandeep-jaiswar/core/internal/httputil"
	"github.com/sandeep-jaiswar/core/internal/marketdata"
	"github.com/sandeep-jaiswar/core/internal/portfolio"
	"github.com/sandeep-jaiswar/core/internal/trading"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	TradeHandler     *trading.Handler
	PortfolioHandler *portfolio.Handler
	MarketHandler    *marketdata.Handler
	AuthService      *auth.Service
	AllowedOrigins   []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(SecurityHeaders)
	r.Use(RateLimit)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/", d.MarketHandler.ListActive)
			r.Get("/movers", d.MarketHandler.Movers)
			r.Get("/ws", d.MarketHandler.WS.ServeHTTP)
			r.Get("/{symbol}", d.MarketHandler.GetSymbol)
		})

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))

			r.Get("/me", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.AuthHandler.Me(w, r, id.AccountID)
			}))

			r.Post("/trades", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.TradeHandler.Place(w, r, id.AccountID)
			}))
			r.Get("/trades", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.TradeHandler.List(w, r, id.AccountID)
			}))
			r.Get("/trades/{tradeID}", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.TradeHandler.Get(w, r, id.AccountID, id.Role)
			}))
			r.Put("/trades/{tradeID}/cancel", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.TradeHandler.Cancel(w, r, id.AccountID, id.Role)
			}))
			r.Put("/trades/{tradeID}/execute", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.TradeHandler.Execute(w, r, id.AccountID, id.Role)
			}))

			r.Get("/portfolio", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.PortfolioHandler.Get(w, r, id.AccountID)
			}))
			r.Get("/portfolio/summary", withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
				d.PortfolioHandler.GetSummary(w, r, id.AccountID)
			}))
		})
	})

	return r
}

func withIdentity(h func(http.ResponseWriter, *http.Request, auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := Identity(r)
		if !ok {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
			return
		}
		h(w, r, id)
	}
}
