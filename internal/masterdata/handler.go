package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opex-suite/opex-suite/internal/platform/httpx"
)

// Handler serves master-data reference listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master-data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/towers", h.listTowers)
	r.Get("/budget-heads", h.listBudgetHeads)
}

func (h *Handler) listTowers(w http.ResponseWriter, r *http.Request) {
	towers, err := h.service.Towers(r.Context())
	if err != nil {
		h.logger.Error("list towers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, towers)
}

func (h *Handler) listBudgetHeads(w http.ResponseWriter, r *http.Request) {
	heads, err := h.service.BudgetHeads(r.Context())
	if err != nil {
		h.logger.Error("list budget heads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, heads)
}
