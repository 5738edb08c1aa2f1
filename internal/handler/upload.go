package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

// multipart framing on top of the file itself
const (
	multipartOverhead = 1 << 20
	multipartMemory   = 4 << 20
)

type StatementUploader interface {
	Upload(ctx context.Context, in service.UploadInput) (*model.UploadResult, error)
	Get(ctx context.Context, userID, uploadID uuid.UUID) (*model.Upload, error)
}

type UploadHandler struct {
	uploadService StatementUploader
	maxBytes      int64
	logger        *logrus.Logger
}

func NewUploadHandler(uploadService StatementUploader, maxBytes int64, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxBytes: maxBytes, logger: logger}
}

// RegisterRoutes expects the /api router.
func (h *UploadHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/upload", h.Upload).Methods("POST")
	router.HandleFunc("/uploads/{id}", h.Status).Methods("GET")
}

// Upload handles a multipart form with "file" and "accountId".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.logger.WithError(err).Warn("bad multipart body")
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := service.UploadInput{
		UserID:    userID,
		AccountID: r.FormValue("accountId"),
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in.Content = file
		in.FileName = header.Filename
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}

	result, err := h.uploadService.Upload(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	uploadID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Upload not found")
		return
	}

	upload, err := h.uploadService.Get(r.Context(), userID, uploadID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}
