package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

const msgInternal = "Internal server error"

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps service errors onto HTTP statuses. Anything it does
// not recognise is logged and reported as a 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, model.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, model.ErrUploadNotFound):
		writeError(w, http.StatusNotFound, "Upload not found")
	case errors.Is(err, model.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, model.ErrInvalidFileType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Only CSV files are allowed")
	case errors.Is(err, model.ErrFileTooLarge):
		writeError(w, http.StatusBadRequest, "File too large")
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		logger.WithField("path", r.URL.Path).Debug("request cancelled")
	default:
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		body := errorBody{Error: fallback}
		if detailsEnabled(r.Context()) {
			body.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}
