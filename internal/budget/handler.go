package budget

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opex-suite/opex-suite/internal/platform/httpx"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// Handler serves budget detail and tracker endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/budgets/tracker", h.tracker)
	r.Get("/budgets/{uid}", h.detail)
	r.Post("/budgets/{uid}/notes", h.addNote)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	detail, err := h.service.LineItemDetail(r.Context(), uid)
	if err != nil {
		h.logger.Error("line item detail", slog.String("uid", uid), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) tracker(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.BudgetTracker(r.Context())
	if err != nil {
		h.logger.Error("budget tracker", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

type addNoteRequest struct {
	Note     string `json:"note"`
	ActualID *int64 `json:"actualId,omitempty"`
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	var req addNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	note, err := h.service.AddReconciliationNote(r.Context(), uid, req.Note, shared.ActorFromContext(r.Context()), req.ActualID)
	if err != nil {
		h.logger.Error("add reconciliation note", slog.String("uid", uid), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, note)
}
