package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/akavelink/akavelink"
)

// Service is the operation surface the handlers consume, one method
// per bucket/file action.
type Service interface {
	CreateBucket(ctx context.Context, name string) (*akavelink.Bucket, error)
	ViewBucket(ctx context.Context, name string) (*akavelink.Bucket, error)
	ListBuckets(ctx context.Context) ([]akavelink.Bucket, error)
	DeleteBucket(ctx context.Context, name string) (*akavelink.DeleteAck, error)
	ListFiles(ctx context.Context, bucket string) ([]akavelink.FileMeta, error)
	FileInfo(ctx context.Context, bucket, file string) (*akavelink.FileMeta, error)
	DeleteFile(ctx context.Context, bucket, file string) (*akavelink.DeleteAck, error)
	Upload(ctx context.Context, bucket, fileName string, content io.Reader) (*akavelink.UploadResult, error)
	Download(ctx context.Context, bucket, file string) (string, func(), error)
}

// CORSConfig holds CORS settings for the router.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig configures the Handler.
type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize caps multipart upload bodies in bytes; 0 means no
	// limit.
	MaxUploadSize int64
}

// Handler provides the HTTP handlers for bucket and file operations.
type Handler struct {
	config  HandlerConfig
	reg     *akavelink.Registry
	service Service
}

// NewHandler creates a Handler for the given service.
func NewHandler(config *HandlerConfig, reg *akavelink.Registry, service Service) *Handler {
	return &Handler{
		config:  *config,
		reg:     reg,
		service: service,
	}
}

// Router returns the configured chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/health", h.handleHealth)

	r.Route("/buckets", func(r chi.Router) {
		r.Post("/", h.handleCreateBucket)
		r.Get("/", h.handleListBuckets)

		r.Route("/{bucket}", func(r chi.Router) {
			r.Use(NameValidationMiddleware(h.reg))
			r.Get("/", h.handleViewBucket)
			r.Delete("/", h.handleDeleteBucket)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", h.handleListFiles)
				r.Post("/", h.handleUpload)
				r.Route("/{file}", func(r chi.Router) {
					r.Get("/", h.handleFileInfo)
					r.Delete("/", h.handleDeleteFile)
					r.Get("/download", h.handleDownload)
				})
			})
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.reg.NewError(akavelink.CodeValidationError, err))
		return
	}
	if !akavelink.IsValidBucketName(body.Name) {
		WriteError(w, h.reg.NewErrorWithDetails(akavelink.CodeValidationError,
			fmt.Errorf("invalid bucket name"),
			map[string]any{"bucket": body.Name}))
		return
	}

	bucket, err := h.service.CreateBucket(r.Context(), body.Name)
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusCreated, bucket)
}

func (h *Handler) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.service.ListBuckets(r.Context())
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, buckets)
}

func (h *Handler) handleViewBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := h.service.ViewBucket(r.Context(), chi.URLParam(r, "bucket"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, bucket)
}

func (h *Handler) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	ack, err := h.service.DeleteBucket(r.Context(), chi.URLParam(r, "bucket"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, ack)
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles(r.Context(), chi.URLParam(r, "bucket"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.FileInfo(r.Context(), chi.URLParam(r, "bucket"), chi.URLParam(r, "file"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	ack, err := h.service.DeleteFile(r.Context(), chi.URLParam(r, "bucket"), chi.URLParam(r, "file"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusOK, ack)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, h.reg.NewError(akavelink.CodeValidationError,
			fmt.Errorf("multipart field 'file' required: %w", err)))
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(header.Filename)
	if !akavelink.IsValidFileName(name) {
		WriteError(w, h.reg.NewErrorWithDetails(akavelink.CodeValidationError,
			fmt.Errorf("invalid file name"),
			map[string]any{"file": header.Filename}))
		return
	}

	result, err := h.service.Upload(r.Context(), chi.URLParam(r, "bucket"), name, file)
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := h.service.Download(r.Context(), chi.URLParam(r, "bucket"), chi.URLParam(r, "file"))
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		HandleError(w, h.reg, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
