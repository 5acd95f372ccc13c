package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
)

// DefaultLatency задаёт задержку, имитирующую сетевой обмен в режиме фикстур.
const DefaultLatency = 300 * time.Millisecond

// MockOptions задаёт параметры репозитория фикстур.
type MockOptions struct {
	Latency time.Duration
	Logger  *zap.Logger
	// Now задаёт часы для отметок времени, по умолчанию текущее время UTC.
	Now func() time.Time
}

// revisioned реализуют сущности, которые ведут отметки времени и номер ревизии.
type revisioned[T any] interface {
	Stamped(now time.Time) T
	Revised(prev T, now time.Time) T
}

// utcNow округляет до миллисекунд, как хранит время бэкенд.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Mock обслуживает операции из собственной копии фикстур в памяти.
// Изменения одного экземпляра не видны другим экземплярам.
type Mock[T model.Entity[T]] struct {
	kind    Kind
	latency time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	items []T
}

// NewMock создаёт репозиторий фикстур, копируя seed.
func NewMock[T model.Entity[T]](kind Kind, seed []T, opts MockOptions) *Mock[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = utcNow
	}

	items := make([]T, len(seed))
	copy(items, seed)

	return &Mock[T]{
		kind:    kind,
		latency: opts.Latency,
		logger:  opts.Logger.With(zap.String("kind", kind.Name), zap.String("source", "mock")),
		now:     opts.Now,
		items:   items,
	}
}

func (m *Mock[T]) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(m.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Mock[T]) snapshot() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]T, len(m.items))
	copy(items, m.items)
	return items
}

func (m *Mock[T]) indexOf(id string) int {
	for i, item := range m.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// ListAll возвращает все фикстуры после имитации задержки.
func (m *Mock[T]) ListAll(ctx context.Context) (model.Response[T], error) {
	if err := m.wait(ctx); err != nil {
		return model.Response[T]{}, err
	}

	items := m.snapshot()
	return model.Success(fmt.Sprintf("%d %s(s) found", len(items), m.kind.Name), items...), nil
}

// GetByID ищет фикстуру по идентификатору.
func (m *Mock[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		return m.items[i], true, nil
	}
	return zero, false, nil
}

// Create присваивает черновику новый идентификатор и добавляет его в коллекцию.
func (m *Mock[T]) Create(ctx context.Context, draft T) (model.Response[T], error) {
	if err := m.wait(ctx); err != nil {
		return model.Response[T]{}, err
	}

	id, err := m.newID()
	if err != nil {
		return model.Response[T]{}, err
	}
	created := draft.WithID(id)
	if r, ok := any(created).(revisioned[T]); ok {
		created = r.Stamped(m.now())
	}

	m.mu.Lock()
	m.items = append(m.items, created)
	m.mu.Unlock()

	m.logger.Debug("fixture created", zap.String("id", id))

	return model.Success(m.kind.Name+" created", created), nil
}

// newID строит идентификатор из префикса вида и UUIDv7, упорядоченного по времени.
func (m *Mock[T]) newID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return m.kind.IDPrefix + "-" + u.String(), nil
}

// DeleteByID удаляет фикстуру. Для отсутствующего идентификатора возвращается неуспешный конверт, а не ошибка.
func (m *Mock[T]) DeleteByID(ctx context.Context, id string) (model.Response[T], error) {
	if err := m.wait(ctx); err != nil {
		return model.Response[T]{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return model.Failure[T](fmt.Sprintf("%s %s not found", m.kind.Name, id)), nil
	}

	m.items = append(m.items[:i:i], m.items[i+1:]...)
	m.logger.Debug("fixture deleted", zap.String("id", id))

	return model.Success[T](m.kind.Name + " deleted"), nil
}

// Update накладывает поля patch поверх существующей фикстуры. Поле _id не меняется.
func (m *Mock[T]) Update(ctx context.Context, id string, patch model.Patch) (model.Response[T], error) {
	if err := m.wait(ctx); err != nil {
		return model.Response[T]{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return model.Failure[T](fmt.Sprintf("%s %s not found", m.kind.Name, id)), nil
	}

	merged, err := merge(m.items[i], patch)
	if err != nil {
		return model.Failure[T](fmt.Sprintf("invalid patch: %v", err)), nil
	}
	if r, ok := any(merged).(revisioned[T]); ok {
		merged = r.Revised(m.items[i], m.now())
	}

	m.items[i] = merged
	m.logger.Debug("fixture updated", zap.String("id", id), zap.Int("fields", len(patch)))

	return model.Success(m.kind.Name+" updated", merged), nil
}

func merge[T model.Entity[T]](current T, patch model.Patch) (T, error) {
	var zero T

	raw, err := json.Marshal(current)
	if err != nil {
		return zero, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, err
	}

	for k, v := range patch {
		if k == "_id" {
			continue
		}
		fields[k] = v
	}

	raw, err = json.Marshal(fields)
	if err != nil {
		return zero, err
	}

	var merged T
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, err
	}

	return merged.WithID(current.EntityID()), nil
}
