// Package eventbus реализует минимальную шину публикации и подписки с типизированными темами.
//
// Доставка синхронная и только текущим подписчикам: события не буферизуются
// и не повторяются. Паника в обработчике перехватывается и логируется.
package eventbus

import (
	"sync"

	"go.uber.org/zap"
)

// Topic описывает типизированную тему. Значение T доставляется подписчикам как есть.
type Topic[T any] struct {
	name string
}

// NewTopic создаёт тему с указанным именем.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name возвращает имя темы.
func (t Topic[T]) Name() string { return t.name }

type handler struct {
	id uint64
	fn func(any)
}

// Bus хранит подписчиков по именам тем.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]handler
	nextID uint64
	logger *zap.Logger
}

// New создаёт пустую шину.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string][]handler),
		logger: logger,
	}
}

// Subscription позволяет отменить подписку.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe отменяет подписку. Повторный вызов ничего не делает.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Subscribe регистрирует fn для темы topic.
func Subscribe[T any](b *Bus, topic Topic[T], fn func(T)) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic.name] = append(b.subs[topic.name], handler{
		id: id,
		fn: func(v any) { fn(v.(T)) },
	})
	b.mu.Unlock()

	b.logger.Debug("subscribed", zap.String("topic", topic.name), zap.Uint64("id", id))

	return &Subscription{cancel: func() { b.remove(topic.name, id) }}
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs := b.subs[topic]
	for i, h := range hs {
		if h.id == id {
			b.subs[topic] = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish доставляет v всем текущим подписчикам темы.
func Publish[T any](b *Bus, topic Topic[T], v T) {
	b.mu.RLock()
	hs := make([]handler, len(b.subs[topic.name]))
	copy(hs, b.subs[topic.name])
	b.mu.RUnlock()

	for _, h := range hs {
		b.deliver(topic.name, h, v)
	}
}

func (b *Bus) deliver(topic string, h handler, v any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("subscriber panicked",
				zap.String("topic", topic),
				zap.Uint64("id", h.id),
				zap.Any("panic", r),
			)
		}
	}()
	h.fn(v)
}

// Subscribers возвращает число подписчиков темы.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
