package report

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opex-suite/opex-suite/internal/budget"
	"github.com/opex-suite/opex-suite/internal/platform/httpx"
)

// Handler serves report downloads.
type Handler struct {
	logger  *slog.Logger
	budgets *budget.Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, budgets *budget.Service) *Handler {
	return &Handler{logger: logger, budgets: budgets}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/tracker.xlsx", h.trackerExport)
}

func (h *Handler) trackerExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.budgets.BudgetTracker(r.Context())
	if err != nil {
		h.logger.Error("tracker export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="budget-tracker.xlsx"`)
	if err := WriteTrackerWorkbook(w, rows); err != nil {
		h.logger.Error("write tracker workbook", slog.Any("error", err))
	}
}
