// Package cart хранит корзину покупателя, ограничивает количество по доступному остатку
// и зеркалирует её в долговременное хранилище.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/eventbus"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/storage"
)

// StorageKey задаёт ключ долговременного хранилища корзины. Пишет в него только Aggregator.
const StorageKey = "shoppingCart"

var (
	// ErrCapacityExceeded возвращается, когда позиция превысила бы доступное количество.
	// Корзина при этом не меняется.
	ErrCapacityExceeded = errors.New("requested quantity exceeds available stock")
	// ErrLineNotFound возвращается для отсутствующей позиции.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidCount возвращается для неположительного количества.
	ErrInvalidCount = errors.New("quantity must be positive")
	// ErrPersistDegraded означает, что изменение применено в памяти, но не сохранено.
	ErrPersistDegraded = errors.New("cart changed but could not be saved")
)

// Темы шины, в которые публикует корзина.
var (
	ChangedTopic    = eventbus.NewTopic[model.CartState]("cart.changed")
	VisibilityTopic = eventbus.NewTopic[model.ModalVisibility]("cart.visibility")
)

// Item описывает то, что добавляется в корзину.
type Item struct {
	EntityID     string
	Name         string
	UnitPrice    float64
	MaxAvailable int
}

// ItemFromProduct ограничивает позицию остатком товара.
func ItemFromProduct(p model.Product) Item {
	return Item{EntityID: p.ID, Name: p.Name, UnitPrice: p.Price, MaxAvailable: p.Quantity}
}

// ItemFromWorkshop ограничивает позицию числом мест.
func ItemFromWorkshop(w model.Workshop) Item {
	return Item{EntityID: w.ID, Name: w.Name, UnitPrice: w.Price, MaxAvailable: w.Capacity}
}

// ItemFromService допускает одну запись на услугу.
func ItemFromService(s model.Service) Item {
	return Item{EntityID: s.ID, Name: s.Name, UnitPrice: s.Price, MaxAvailable: 1}
}

// Aggregator владеет корзиной. Изменение сначала применяется в памяти,
// затем корзина целиком записывается в хранилище.
type Aggregator struct {
	store  storage.Store
	bus    *eventbus.Bus
	logger *zap.Logger

	mu    sync.Mutex
	lines []model.CartLine

	// pending хранит ещё не опубликованные состояния в порядке фиксации.
	pending  []model.CartState
	draining bool
}

// NewAggregator создаёт корзину и восстанавливает её из хранилища.
// Повреждённое сохранённое состояние заменяется пустой корзиной.
func NewAggregator(ctx context.Context, store storage.Store, bus *eventbus.Bus, logger *zap.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = eventbus.New(logger)
	}

	a := &Aggregator{
		store:  store,
		bus:    bus,
		logger: logger.With(zap.String("component", "cart")),
	}

	raw, found, err := store.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	if !found || raw == "" {
		return a, nil
	}

	state, err := Decode(raw)
	if err != nil {
		a.logger.Warn("discarding unreadable cart", zap.Error(err))
		return a, nil
	}
	a.lines = state.Lines

	return a, nil
}

// Encode сериализует состояние корзины.
func Encode(state model.CartState) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(raw), nil
}

// Decode восстанавливает состояние корзины, отбрасывая позиции, нарушающие инварианты,
// и пересчитывая итог.
func Decode(raw string) (model.CartState, error) {
	var state model.CartState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return model.CartState{}, fmt.Errorf("decode cart: %w", err)
	}

	seen := make(map[string]struct{}, len(state.Lines))
	lines := make([]model.CartLine, 0, len(state.Lines))
	for _, l := range state.Lines {
		if l.EntityID == "" || l.RequestedCount <= 0 || l.RequestedCount > l.MaxAvailable {
			continue
		}
		if _, dup := seen[l.EntityID]; dup {
			continue
		}
		seen[l.EntityID] = struct{}{}
		lines = append(lines, l)
	}

	return model.NewCartState(lines), nil
}

// State возвращает копию корзины с итогом.
func (a *Aggregator) State() model.CartState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.NewCartState(a.lines)
}

// AddLine добавляет единицу позиции. Если позиция уже есть и её количество
// достигло MaxAvailable, возвращает ErrCapacityExceeded без изменения корзины.
func (a *Aggregator) AddLine(ctx context.Context, item Item) (model.CartLine, error) {
	return a.mutate(ctx, func(lines []model.CartLine) ([]model.CartLine, model.CartLine, error) {
		for i, l := range lines {
			if l.EntityID != item.EntityID {
				continue
			}
			if l.RequestedCount+1 > l.MaxAvailable {
				return nil, l, fmt.Errorf("%w: %s allows at most %d", ErrCapacityExceeded, l.EntityID, l.MaxAvailable)
			}
			lines[i].RequestedCount++
			return lines, lines[i], nil
		}

		if item.MaxAvailable < 1 {
			return nil, model.CartLine{}, fmt.Errorf("%w: %s is out of stock", ErrCapacityExceeded, item.EntityID)
		}

		line := model.CartLine{
			EntityID:       item.EntityID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice,
			RequestedCount: 1,
			MaxAvailable:   item.MaxAvailable,
		}
		return append(lines, line), line, nil
	})
}

// UpdateCount устанавливает точное количество позиции.
func (a *Aggregator) UpdateCount(ctx context.Context, entityID string, count int) (model.CartLine, error) {
	if count <= 0 {
		return model.CartLine{}, ErrInvalidCount
	}

	return a.mutate(ctx, func(lines []model.CartLine) ([]model.CartLine, model.CartLine, error) {
		for i, l := range lines {
			if l.EntityID != entityID {
				continue
			}
			if count > l.MaxAvailable {
				return nil, l, fmt.Errorf("%w: %s allows at most %d", ErrCapacityExceeded, l.EntityID, l.MaxAvailable)
			}
			lines[i].RequestedCount = count
			return lines, lines[i], nil
		}
		return nil, model.CartLine{}, ErrLineNotFound
	})
}

// RemoveLine удаляет позицию из корзины.
func (a *Aggregator) RemoveLine(ctx context.Context, entityID string) error {
	_, err := a.mutate(ctx, func(lines []model.CartLine) ([]model.CartLine, model.CartLine, error) {
		for i, l := range lines {
			if l.EntityID == entityID {
				return append(lines[:i], lines[i+1:]...), l, nil
			}
		}
		return nil, model.CartLine{}, ErrLineNotFound
	})
	return err
}

// Clear очищает корзину.
func (a *Aggregator) Clear(ctx context.Context) error {
	_, err := a.mutate(ctx, func([]model.CartLine) ([]model.CartLine, model.CartLine, error) {
		return []model.CartLine{}, model.CartLine{}, nil
	})
	return err
}

// ToggleVisibility публикует намерение открыть или закрыть окно корзины. Состояние корзины не меняется.
func (a *Aggregator) ToggleVisibility(open bool) {
	eventbus.Publish(a.bus, VisibilityTopic, model.ModalVisibility{Open: open})
}

// mutate применяет fn к копии позиций. При успехе копия становится текущей корзиной,
// после чего корзина целиком записывается в хранилище.
func (a *Aggregator) mutate(
	ctx context.Context,
	fn func(lines []model.CartLine) ([]model.CartLine, model.CartLine, error),
) (model.CartLine, error) {
	a.mu.Lock()

	next := make([]model.CartLine, len(a.lines))
	copy(next, a.lines)

	next, line, err := fn(next)
	if err != nil {
		a.mu.Unlock()
		return line, err
	}

	state := model.NewCartState(next)
	raw, err := Encode(state)
	if err != nil {
		a.mu.Unlock()
		return line, err
	}

	a.lines = next
	a.pending = append(a.pending, state)
	persistErr := a.persist(ctx, raw)
	a.mu.Unlock()

	a.flush()

	if persistErr != nil {
		return line, fmt.Errorf("%w: %w", ErrPersistDegraded, persistErr)
	}
	return line, nil
}

// flush публикует накопленные состояния в порядке фиксации. Публикует только
// одна горутина за раз: если очередь уже разбирается (в том числе выше по стеку,
// когда подписчик сам меняет корзину), состояние будет доставлено ею.
func (a *Aggregator) flush() {
	a.mu.Lock()
	if a.draining {
		a.mu.Unlock()
		return
	}
	a.draining = true

	for len(a.pending) > 0 {
		state := a.pending[0]
		a.pending[0] = model.CartState{}
		a.pending = a.pending[1:]
		a.mu.Unlock()

		eventbus.Publish(a.bus, ChangedTopic, state)

		a.mu.Lock()
	}

	a.pending = nil
	a.draining = false
	a.mu.Unlock()
}

// persist записывает корзину, повторяя запись один раз.
func (a *Aggregator) persist(ctx context.Context, raw string) error {
	err := a.store.Set(ctx, StorageKey, raw)
	if err == nil {
		return nil
	}

	a.logger.Warn("cart write failed, retrying", zap.Error(err))

	if err = a.store.Set(ctx, StorageKey, raw); err != nil {
		a.logger.Error("cart write failed", zap.Error(err))
		return err
	}
	return nil
}
