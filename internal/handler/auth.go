package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Wodenvase/BharatLedger/internal/model"
)

type Authenticator interface {
	SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error)
	SignIn(ctx context.Context, input model.SignInInput) (string, error)
	TokenExpiry() time.Duration
}

// AuthHandler serves sign-up, sign-in and sign-out.
type AuthHandler struct {
	authService  Authenticator
	secureCookie bool
	logger       *logrus.Logger
}

func NewAuthHandler(authService Authenticator, secureCookie bool, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/signup", h.SignUp).Methods("POST")
	router.HandleFunc("/signin", h.SignIn).Methods("POST")
	router.HandleFunc("/signout", h.SignOut).Methods("POST")
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input model.SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.WithError(err).Warn("bad sign-up body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	user, err := h.authService.SignUp(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}

	writeJSON(w, http.StatusCreated, user.Profile())
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input model.SignInInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.WithError(err).Warn("bad sign-in body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	token, err := h.authService.SignIn(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, h.logger, err, msgInternal)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.TokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
