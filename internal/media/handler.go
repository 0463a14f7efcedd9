package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/pkg"
)

const (
	// room for multipart boundaries and the folder field
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

type uploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType, folder string) (*UploadResult, error)
	PresignUpload(ctx context.Context, req UploadRequest) (*PresignedUpload, error)
}

type Handler struct {
	store uploader
}

func NewHandler(store uploader) *Handler {
	return &Handler{store: store}
}

// SetupRoutes registers the upload endpoints on the admin API router.
func (h *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	limit := middleware.RateLimit(rateLimiter, "upload", allowedPerMin, metricsManager)
	router.Handle("/upload", limit(http.HandlerFunc(h.HandleUpload))).Methods("POST").Name("media-upload")
	router.Handle("/uploads/presign", limit(http.HandlerFunc(h.HandlePresign))).Methods("POST").Name("media-presign")
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			pkg.WriteJSONError(w, "File too large (max 20MB)", http.StatusBadRequest)
			return
		}
		pkg.WriteJSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Warnf("upload: remove multipart temp files: %s", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.WriteJSONError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("upload: close file: %s", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		log.Errorf("upload: read file: %s", err)
		pkg.WriteJSONError(w, "failed to read file", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	res, err := h.store.Upload(r.Context(), data, header.Filename, contentType, r.FormValue("folder"))
	if err != nil {
		writeStoreError(w, err, contentType)
		return
	}

	log.Debugf("upload: stored [%s] (%d bytes)", res.Key, len(data))
	pkg.WriteJSON(w, res, http.StatusOK)
}

func (h *Handler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		pkg.WriteJSONError(w, "filename is required", http.StatusBadRequest)
		return
	}

	res, err := h.store.PresignUpload(r.Context(), req)
	if err != nil {
		writeStoreError(w, err, req.ContentType)
		return
	}

	pkg.WriteJSON(w, res, http.StatusOK)
}

func writeStoreError(w http.ResponseWriter, err error, contentType string) {
	switch {
	case errors.Is(err, ErrContentTypeNotAllowed):
		pkg.WriteJSONError(w, fmt.Sprintf("Content type '%s' not allowed", contentType), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidFolder):
		pkg.WriteJSONError(w, "Invalid folder path", http.StatusBadRequest)
	case errors.Is(err, ErrFileTooLarge):
		pkg.WriteJSONError(w, "File too large (max 20MB)", http.StatusBadRequest)
	default:
		log.Errorf("media store: %s", err)
		pkg.WriteJSONError(w, "upload failed", http.StatusInternalServerError)
	}
}
