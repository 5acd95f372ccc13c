// Package session управляет токеном и профилем аутентифицированного пользователя.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/storage"
	"github.com/mmeshcher/storefront/internal/transport"
)

// TokenKey задаёт ключ долговременного хранилища, под которым лежит токен. Пишет в него только Manager.
const TokenKey = "token"

// State описывает состояние сессии.
type State int

const (
	// Anonymous: токена нет.
	Anonymous State = iota
	// Unverified: токен есть, но не подтверждён бэкендом.
	Unverified
	// Active: токен подтверждён, профиль пользователя загружен.
	Active
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Unverified:
		return "unverified"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Manager владеет текущей сессией. Профиль заполняется только после успешной проверки токена.
type Manager struct {
	client repository.Doer
	store  storage.Store
	logger *zap.Logger

	mu    sync.RWMutex
	state State
	token string
	user  *model.UserProfile
}

// NewManager создаёт менеджер и восстанавливает сохранённый токен.
func NewManager(ctx context.Context, client repository.Doer, store storage.Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		client: client,
		store:  store,
		logger: logger.With(zap.String("component", "session")),
	}

	token, found, err := store.Get(ctx, TokenKey)
	if err != nil {
		return nil, err
	}
	if found && token != "" {
		m.token = token
		m.state = Unverified
	}

	return m, nil
}

// Register отправляет запрос на регистрацию. Локальное состояние сессии не меняется.
// Отказ бэкенда возвращается в AuthResponse, ошибка возвращается только при сбое транспорта.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (model.AuthResponse, error) {
	var resp model.AuthResponse

	res, err := m.client.Do(ctx, http.MethodPost, "/auth/register", reg, nil)
	if err != nil {
		if decodeFailure(err, &resp) {
			m.logger.Info("registration rejected", zap.String("email", reg.Email), zap.String("msg", resp.Msg))
			return resp, nil
		}
		m.logger.Warn("registration request failed", zap.Error(err))
		return resp, err
	}

	if err := res.Decode(&resp); err != nil {
		return resp, err
	}

	return resp, nil
}

// Login отправляет учётные данные и при успехе сохраняет токен.
// Любой отказ, включая сетевую ошибку, возвращается как false.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) bool {
	res, err := m.client.Do(ctx, http.MethodPost, "/auth/login", creds, nil)
	if err != nil {
		m.logger.Info("login failed", zap.String("email", creds.Email), zap.Error(err))
		return false
	}

	var resp model.AuthResponse
	if err := res.Decode(&resp); err != nil || !resp.OK || resp.Token == "" {
		m.logger.Info("login rejected", zap.String("email", creds.Email))
		return false
	}

	if err := m.store.Set(ctx, TokenKey, resp.Token); err != nil {
		m.logger.Error("persist token failed", zap.Error(err))
		return false
	}

	m.mu.Lock()
	m.token = resp.Token
	m.user = nil
	m.state = Unverified
	m.mu.Unlock()

	return true
}

// VerifyToken продлевает сохранённый токен. При успехе сессия становится активной
// и токен заменяется новым; при любом отказе сессия и сохранённый токен очищаются.
func (m *Manager) VerifyToken(ctx context.Context) bool {
	token, _, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		m.logger.Warn("read token failed", zap.Error(err))
		token = ""
	}

	header := http.Header{}
	header.Set(transport.HeaderToken, token)

	resp, err := m.renew(ctx, header)
	if err != nil || !resp.OK || resp.Token == "" || resp.UserData == nil {
		m.logger.Info("token verification failed", zap.Error(err))
		m.clear(ctx)
		return false
	}

	user := *resp.UserData

	m.mu.Lock()
	m.token = resp.Token
	m.user = &user
	m.state = Active
	m.mu.Unlock()

	if err := m.store.Set(ctx, TokenKey, resp.Token); err != nil {
		m.logger.Warn("persist renewed token failed", zap.Error(err))
	}

	return true
}

func (m *Manager) renew(ctx context.Context, header http.Header) (model.AuthResponse, error) {
	var resp model.AuthResponse

	res, err := m.client.Do(ctx, http.MethodGet, "/auth/renew-token", nil, header)
	if err != nil {
		return resp, err
	}

	err = res.Decode(&resp)
	return resp, err
}

// Logout завершает сессию и удаляет сохранённый токен.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.state = Anonymous
	m.mu.Unlock()

	return m.store.Remove(ctx, TokenKey)
}

func (m *Manager) clear(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		m.logger.Warn("remove token failed", zap.Error(err))
	}
}

// User возвращает копию профиля пользователя.
func (m *Manager) User() (model.UserProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return model.UserProfile{}, false
	}
	return *m.user, true
}

// Token возвращает текущий токен или пустую строку.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// State возвращает текущее состояние сессии.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session возвращает снимок сессии.
func (m *Manager) Session() model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := model.Session{Token: m.token}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

func decodeFailure(err error, resp *model.AuthResponse) bool {
	status := transport.StatusOf(err)
	if status < 400 || status >= 500 {
		return false
	}

	var terr *transport.Error
	if !errors.As(err, &terr) {
		return false
	}

	if json.Unmarshal(terr.Payload, resp) != nil || resp.Msg == "" {
		resp.Msg = http.StatusText(status)
	}
	resp.OK = false
	return true
}
