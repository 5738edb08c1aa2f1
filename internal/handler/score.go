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

type ScoreModel interface {
	Score(ctx context.Context, userID uuid.UUID) (*model.ScoreReport, error)
	Simulate(ctx context.Context, userID uuid.UUID, in model.SimulationInput) (*model.SimulationResult, error)
}

type ScoreHandler struct {
	featureService ScoreModel
	logger         *logrus.Logger
}

func NewScoreHandler(featureService ScoreModel, logger *logrus.Logger) *ScoreHandler {
	return &ScoreHandler{featureService: featureService, logger: logger}
}

// RegisterRoutes expects the /api router.
func (h *ScoreHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/score", h.Score).Methods("GET")
	router.HandleFunc("/simulate", h.Simulate).Methods("POST")
}

func (h *ScoreHandler) Score(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.featureService.Score(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ScoreHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var in model.SimulationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.WithError(err).Warn("bad simulation body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.featureService.Simulate(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
