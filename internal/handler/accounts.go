package handler

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/storefront/internal/model"
)

var (
	errEmailTaken         = errors.New("email already registered")
	errInvalidCredentials = errors.New("invalid credentials")
)

type account struct {
	profile model.UserProfile
	hash    []byte
}

// accountBook хранит учётные записи в памяти, пароли хранятся в виде bcrypt-хэшей.
type accountBook struct {
	mu      sync.RWMutex
	byEmail map[string]account
}

func newAccountBook() *accountBook {
	return &accountBook{byEmail: make(map[string]account)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (b *accountBook) register(req model.Registration) (model.UserProfile, error) {
	email := normalizeEmail(req.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byEmail[email]; exists {
		return model.UserProfile{}, errEmailTaken
	}

	profile := model.UserProfile{
		UID:   "user-" + uuid.NewString(),
		Name:  req.Name,
		Email: email,
		Role:  "customer",
	}
	b.byEmail[email] = account{profile: profile, hash: hash}

	return profile, nil
}

func (b *accountBook) authenticate(creds model.Credentials) (model.UserProfile, error) {
	acc, ok := b.get(normalizeEmail(creds.Email))
	if !ok {
		return model.UserProfile{}, errInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)); err != nil {
		return model.UserProfile{}, errInvalidCredentials
	}

	return acc.profile, nil
}

func (b *accountBook) lookup(email string) (model.UserProfile, bool) {
	acc, ok := b.get(normalizeEmail(email))
	return acc.profile, ok
}

func (b *accountBook) get(email string) (account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.byEmail[email]
	return acc, ok
}
