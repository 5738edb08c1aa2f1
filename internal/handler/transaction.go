package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
	"github.com/Wodenvase/BharatLedger/internal/service"
)

type TransactionLister interface {
	List(ctx context.Context, filter model.TransactionFilter) (*model.TransactionPage, error)
}

type TransactionHandler struct {
	transactionService TransactionLister
	logger             *logrus.Logger
}

func NewTransactionHandler(transactionService TransactionLister, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods("GET")
}

// List handles GET /api/transactions?type=&category=&startDate=&endDate=&limit=&offset=
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	filter, err := transactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.UserID = userID

	page, err := h.transactionService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func transactionFilter(r *http.Request) (model.TransactionFilter, error) {
	q := r.URL.Query()
	var (
		f   model.TransactionFilter
		err error
	)

	if v := q.Get("type"); v != "" {
		if f.Type, err = model.ParseTransactionType(v); err != nil {
			return f, err
		}
	}
	f.Category = strings.TrimSpace(q.Get("category"))

	if f.StartDate, err = optionalDate(q, "startDate"); err != nil {
		return f, err
	}
	if err = upperBound(q, "endDate", &f); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(q, "limit", service.DefaultPageLimit); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}
