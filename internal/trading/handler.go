package trading

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sandeep-jaiswar/core/internal/httputil"
	"github.com/sandeep-jaiswar/core/internal/types"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Place(w http.ResponseWriter, r *http.Request, accountID string) {
	var req PlaceRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	trade, err := h.svc.PlaceTrade(r.Context(), accountID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, trade)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, accountID string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	result, err := h.svc.List(r.Context(), accountID, page, size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, accountID string, role types.Role) {
	trade, err := h.svc.Get(r.Context(), accountID, role, chi.URLParam(r, "tradeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, accountID string, role types.Role) {
	trade, err := h.svc.Cancel(r.Context(), accountID, role, chi.URLParam(r, "tradeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request, accountID string, role types.Role) {
	trade, err := h.svc.Execute(r.Context(), accountID, role, chi.URLParam(r, "tradeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trade)
}
