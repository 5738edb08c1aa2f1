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

type AccountManager interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, sourceName string) (*model.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
}

// AccountHandler lists and creates the statement sources of a user.
type AccountHandler struct {
	accountService AccountManager
	logger         *logrus.Logger
}

func NewAccountHandler(accountService AccountManager, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.CreateAccount).Methods("POST")
	router.HandleFunc("", h.GetUserAccounts).Methods("GET")
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Warn("bad account body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), userID, req.SourceName)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountService.GetUserAccounts(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}

	writeJSON(w, http.StatusOK, accounts)
}
