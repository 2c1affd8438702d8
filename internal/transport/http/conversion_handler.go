package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	apierrors "wcabridge/internal/errors"
	"wcabridge/internal/files"
	"wcabridge/internal/middleware"
	"wcabridge/internal/services"
	"wcabridge/internal/validation"
	api "wcabridge/pkg/contracts/api/v1"
	"wcabridge/pkg/contracts/domain"
)

// maxMultipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file
const maxMultipartMemory = 8 << 20

// ConversionProcessor converts a stored input file into a dataset
type ConversionProcessor interface {
	ProcessFile(ctx context.Context, path string, opts services.ConversionOptions) (*services.ConversionResult, error)
}

type conversionCtxKey struct{}

// ConversionHandler handles upload and retrieval of conversions
type ConversionHandler struct {
	service         ConversionProcessor
	store           *services.ConversionStore
	files           *files.Manager
	validator       *middleware.ValidationMiddleware
	inputs          *validation.FileValidator
	datasetFileName string
	logger          *slog.Logger
	errorHandler    *apierrors.ErrorHandler
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(
	service ConversionProcessor,
	store *services.ConversionStore,
	fm *files.Manager,
	validator *middleware.ValidationMiddleware,
	datasetFileName string,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *ConversionHandler {
	return &ConversionHandler{
		service:         service,
		store:           store,
		files:           fm,
		validator:       validator,
		inputs:          validation.NewFileValidator(logger),
		datasetFileName: datasetFileName,
		logger:          logger.With(slog.String("component", "conversion_handler")),
		errorHandler:    errorHandler,
	}
}

// Routes returns the conversion routes
func (h *ConversionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		h.validator.LimitBody,
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
	).Post("/", h.Create)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.ConversionCtx)
		r.Get("/", h.Get)
		r.Get("/dataset", h.DownloadDataset)
		r.Get("/review/{name}", h.DownloadReview)
	})

	return r
}

// ConversionCtx loads the conversion named by {id} into the request context
func (h *ConversionHandler) ConversionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "id must be a valid UUID"))
			return
		}

		result, err := h.store.Get(id)
		if err != nil {
			if errors.Is(err, services.ErrConversionNotFound) {
				h.errorHandler.HandleError(w, r, apierrors.ErrConversionNotFound)
				return
			}
			h.errorHandler.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), conversionCtxKey{}, result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Create handles POST /api/v1/conversions
func (h *ConversionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	req := api.ConversionRequest{
		FileName: header.Filename,
		Dialect:  r.FormValue("dialect"),
		Transfer: r.FormValue("transfer"),
	}
	if v := r.FormValue("review_csv"); v != "" {
		review, err := strconv.ParseBool(v)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("review_csv", "review_csv must be a boolean"))
			return
		}
		req.ReviewCSV = review
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !h.inputs.IsSupportedInput(req.FileName) {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file",
			fmt.Sprintf("unsupported file type %q", filepath.Ext(req.FileName))))
		return
	}

	runID := uuid.NewString()
	path, err := h.files.SaveUpload(runID, req.FileName, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("upload", err))
		return
	}

	opts := services.ConversionOptions{
		RunID:     runID,
		Output:    h.files.DatasetPath(runID, h.datasetFileName),
		Transfer:  req.Transfer,
		ReviewCSV: req.ReviewCSV,
	}
	if req.Dialect != "" {
		opts.Dialect, _ = domain.ParseDialect(req.Dialect)
	}

	result, err := h.service.ProcessFile(ctx, path, opts)
	if err != nil {
		h.cleanup(ctx, runID)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if evicted := h.store.Put(result); evicted != nil {
		h.logger.DebugContext(ctx, "Evicting oldest conversion", slog.String("run_id", evicted.RunID))
		h.cleanup(ctx, evicted.RunID)
	}

	resp := newConversionResponse(result)
	w.Header().Set("Location", resp.Links["self"])
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Get handles GET /api/v1/conversions/{id}
func (h *ConversionHandler) Get(w http.ResponseWriter, r *http.Request) {
	result := conversionFromContext(r.Context())

	detail := api.ConversionDetail{ConversionResponse: newConversionResponse(result)}
	if result.Dataset != nil {
		detail.PartsValue = result.Dataset.PartsValueRows()
		detail.Deviations = result.Dataset.Deviations
		detail.Transfer = result.Dataset.Transfer
	}
	render.JSON(w, r, detail)
}

// DownloadDataset handles GET /api/v1/conversions/{id}/dataset
func (h *ConversionHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	result := conversionFromContext(r.Context())
	h.serveFile(w, r, result.Output, h.datasetFileName,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// DownloadReview handles GET /api/v1/conversions/{id}/review/{name}
func (h *ConversionHandler) DownloadReview(w http.ResponseWriter, r *http.Request) {
	result := conversionFromContext(r.Context())
	name := chi.URLParam(r, "name")

	for _, path := range result.ReviewCSVs {
		if filepath.Base(path) == name {
			h.serveFile(w, r, path, name, "text/csv; charset=utf-8")
			return
		}
	}
	h.errorHandler.HandleError(w, r, apierrors.NotFoundError("review file"))
}

func (h *ConversionHandler) serveFile(w http.ResponseWriter, r *http.Request, path, name, contentType string) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("file"))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("download", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (h *ConversionHandler) cleanup(ctx context.Context, runID string) {
	if err := h.files.RemoveRun(runID); err != nil {
		h.logger.WarnContext(ctx, "Failed to remove run files",
			slog.String("run_id", runID),
			slog.String("error", err.Error()))
	}
}

func conversionFromContext(ctx context.Context) *services.ConversionResult {
	result, _ := ctx.Value(conversionCtxKey{}).(*services.ConversionResult)
	return result
}

func newConversionResponse(result *services.ConversionResult) api.ConversionResponse {
	self := "/api/v1/conversions/" + result.RunID
	links := map[string]string{
		"self":    self,
		"dataset": self + "/dataset",
	}
	for _, path := range result.ReviewCSVs {
		name := filepath.Base(path)
		links["review:"+name] = self + "/review/" + name
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []domain.Warning{}
	}
	return api.ConversionResponse{
		RunID:      result.RunID,
		Source:     result.Source,
		Dialect:    result.Dialect,
		Components: result.Components,
		Warnings:   warnings,
		Summary:    result.Summary(),
		DurationMS: result.Duration.Milliseconds(),
		Links:      links,
	}
}
