package marketdata

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeep-jaiswar/core/internal/httputil"
	"github.com/sandeep-jaiswar/core/internal/model"
)

type Handler struct {
	store *Store
	WS    *WSHandler
}

func NewHandler(store *Store, ws *WSHandler) *Handler {
	return &Handler{store: store, WS: ws}
}

func (h *Handler) GetSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	m, err := h.store.GetBySymbol(r.Context(), symbol)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListActive(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if items == nil {
		items = []model.MarketData{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Movers(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	gainers, losers, err := h.store.Movers(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.MarketData{
		"gainers": gainers,
		"losers":  losers,
	})
}
