package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type Dashboard interface {
	Overview(ctx context.Context, userID uuid.UUID) (model.ScoreSummary, error)
	History(ctx context.Context, userID uuid.UUID) ([]model.ScoreSnapshot, error)
}

type DashboardHandler struct {
	dashboardService Dashboard
	logger           *logrus.Logger
}

func NewDashboardHandler(dashboardService Dashboard, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/overview", h.Overview).Methods("GET")
	router.HandleFunc("/history", h.History).Methods("GET")
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.dashboardService.Overview(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snapshots, err := h.dashboardService.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	if snapshots == nil {
		snapshots = []model.ScoreSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}
