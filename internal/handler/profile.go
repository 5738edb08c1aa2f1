package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type ProfileManager interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, input model.UpdateProfileInput) (*model.Profile, error)
}

type ProfileHandler struct {
	profileService ProfileManager
	logger         *logrus.Logger
}

func NewProfileHandler(profileService ProfileManager, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, logger: logger}
}

func (h *ProfileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.Get).Methods("GET")
	router.HandleFunc("", h.Update).Methods("PUT")
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input model.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.WithError(err).Warn("bad profile body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
