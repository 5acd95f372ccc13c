// Package storage содержит адаптеры долговременного хранилища строк по ключу.
package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/config"
)

// Store описывает долговременное хранилище строковых значений по ключу.
// Get возвращает found == false для отсутствующего ключа без ошибки.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open создаёт хранилище по настройкам конфигурации.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		st  Store
		err error
	)

	switch cfg.StorageDriver {
	case config.DriverMemory:
		st = NewMemory()
	case config.DriverSQLite:
		st, err = NewSQLite(ctx, cfg.StorageDSN)
	case config.DriverPostgres:
		st, err = NewPostgres(ctx, cfg.StorageDSN)
	case config.DriverRedis:
		st, err = NewRedis(ctx, RedisOptions{Addr: cfg.StorageDSN})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}

	logger.Debug("durable storage opened", zap.String("driver", cfg.StorageDriver))

	return st, nil
}

// Memory хранит значения в памяти процесса.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *Memory) Close() error { return nil }
