package importer

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/opex-suite/opex-suite/internal/platform/httpx"
	"github.com/opex-suite/opex-suite/internal/shared"
)

// maxUploadBytes caps the accepted workbook size.
const maxUploadBytes = 10 << 20

// Handler serves the import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import routes. Uploads are rate limited per IP.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/imports", h.listJobs)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/imports/{type}", h.upload)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	importType := ImportType(chi.URLParam(r, "type"))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "expected multipart form upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "could not read upload")
		return
	}

	opts := Options{
		DryRun:               parseBool(r.FormValue("dryRun")),
		CreateMissingMasters: parseBool(r.FormValue("createMissingMasters")),
	}
	result, err := h.service.Process(r.Context(), importType, header.Filename, data, shared.ActorFromContext(r.Context()), opts)
	if err != nil {
		h.logger.Error("process import",
			slog.String("type", string(importType)),
			slog.String("filename", header.Filename),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.service.Jobs(r.Context(), limit)
	if err != nil {
		h.logger.Error("list import jobs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobs)
}

func parseBool(raw string) bool {
	value, _ := strconv.ParseBool(raw)
	return value
}
