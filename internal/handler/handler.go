// Package handler содержит HTTP-обработчики тестового бэкенда витрины.
// Бэкенд отдаёт сущности каталога из фикстур и ведёт учётные записи в памяти.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/catalog"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/validation"
)

// Handler реализует HTTP-обработчики тестового бэкенда.
type Handler struct {
	catalog        *catalog.Catalog
	accounts       *accountBook
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	rateLimit      float64
}

// NewHandler создаёт обработчик поверх каталога фикстур. rateLimit <= 0 отключает ограничение частоты.
func NewHandler(cat *catalog.Catalog, logger *zap.Logger, auth *middleware.AuthMiddleware, rateLimit float64) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:        cat,
		accounts:       newAccountBook(),
		logger:         logger,
		authMiddleware: auth,
		rateLimit:      rateLimit,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.AuthResponse{OK: false, Msg: msg})
}

// Register создаёт учётную запись. Токен не выдаётся, клиент входит отдельно.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := validation.Struct(req); err != nil {
		writeFailure(w, http.StatusBadRequest, validation.Message(err))
		return
	}

	user, err := h.accounts.register(req)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			writeFailure(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	h.logger.Info("user registered", zap.String("uid", user.UID))
	writeJSON(w, http.StatusCreated, model.AuthResponse{OK: true, Msg: "user created"})
}

// Login проверяет учётные данные и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := validation.Struct(req); err != nil {
		writeFailure(w, http.StatusBadRequest, validation.Message(err))
		return
	}

	user, err := h.accounts.authenticate(req)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	h.issue(w, user)
}

// RenewToken выдаёт новый токен пользователю из действующего токена.
func (h *Handler) RenewToken(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	if _, known := h.accounts.lookup(user.Email); !known {
		writeFailure(w, http.StatusUnauthorized, "unknown user")
		return
	}

	h.issue(w, user)
}

func (h *Handler) issue(w http.ResponseWriter, user model.UserProfile) {
	token, err := h.authMiddleware.Issue(user)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, model.AuthResponse{OK: true, Token: token, UserData: &user})
}
