package portfolio

import (
	"net/http"

	"github.com/sandeep-jaiswar/core/internal/httputil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, accountID string) {
	view, err := h.svc.GetPortfolio(r.Context(), accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request, accountID string) {
	summary, err := h.svc.GetSummary(r.Context(), accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
