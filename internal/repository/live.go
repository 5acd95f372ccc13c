package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/transport"
)

// Doer описывает транспорт, через который живой репозиторий обращается к бэкенду.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, header http.Header) (*transport.Result, error)
}

// TokenSource возвращает текущий токен сессии или пустую строку.
type TokenSource interface {
	Token() string
}

// Live передаёт операции бэкенду через транспорт.
type Live[T model.Entity[T]] struct {
	kind   Kind
	client Doer
	tokens TokenSource
	logger *zap.Logger
}

// NewLive создаёт репозиторий, работающий через бэкенд. tokens может быть nil.
func NewLive[T model.Entity[T]](kind Kind, client Doer, tokens TokenSource, logger *zap.Logger) *Live[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Live[T]{
		kind:   kind,
		client: client,
		tokens: tokens,
		logger: logger.With(zap.String("kind", kind.Name), zap.String("source", "live")),
	}
}

func (l *Live[T]) header() http.Header {
	h := http.Header{}
	if l.tokens == nil {
		return h
	}
	if token := l.tokens.Token(); token != "" {
		h.Set(transport.HeaderToken, token)
	}
	return h
}

func (l *Live[T]) itemPath(id string) string {
	return l.kind.Path + "/" + url.PathEscape(id)
}

// envelope выполняет запрос и разбирает конверт. Ответы 400 и 404 с конвертом
// в теле возвращаются как неуспешный конверт, остальные ошибки возвращаются как ошибки транспорта.
func (l *Live[T]) envelope(ctx context.Context, method, path string, body any) (model.Response[T], error) {
	var resp model.Response[T]

	res, err := l.client.Do(ctx, method, path, body, l.header())
	if err != nil {
		if failure, ok := failureEnvelope[T](err); ok {
			return failure, nil
		}
		l.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return resp, err
	}

	if err := res.Decode(&resp); err != nil {
		return resp, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.OK {
		resp.Data = nil
	}

	return resp, nil
}

func failureEnvelope[T any](err error) (model.Response[T], bool) {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return model.Response[T]{}, false
	}
	if terr.Status != http.StatusNotFound && terr.Status != http.StatusBadRequest {
		return model.Response[T]{}, false
	}

	var resp model.Response[T]
	if json.Unmarshal(terr.Payload, &resp) != nil || resp.Msg == "" {
		resp.Msg = http.StatusText(terr.Status)
	}
	resp.OK = false
	resp.Data = nil

	return resp, true
}

// ListAll запрашивает коллекцию и возвращает конверт без изменений.
func (l *Live[T]) ListAll(ctx context.Context) (model.Response[T], error) {
	return l.envelope(ctx, http.MethodGet, l.kind.Path, nil)
}

// GetByID запрашивает одну сущность и возвращает её без конверта.
// Бэкенд может вернуть data как объект или как массив из одного элемента.
func (l *Live[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var zero T

	res, err := l.client.Do(ctx, http.MethodGet, l.itemPath(id), nil, l.header())
	if err != nil {
		if transport.StatusOf(err) == http.StatusNotFound {
			return zero, false, nil
		}
		return zero, false, err
	}

	var raw struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := res.Decode(&raw); err != nil {
		return zero, false, err
	}

	data := bytes.TrimSpace(raw.Data)
	if !raw.OK || len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return zero, false, nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return zero, false, fmt.Errorf("decode %s: %w", l.kind.Name, err)
		}
		if len(items) == 0 {
			return zero, false, nil
		}
		return items[0], true, nil
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", l.kind.Name, err)
	}

	return item, true, nil
}

// Create отправляет черновик бэкенду, который присваивает идентификатор.
func (l *Live[T]) Create(ctx context.Context, draft T) (model.Response[T], error) {
	return l.envelope(ctx, http.MethodPost, l.kind.Path, draft)
}

// DeleteByID удаляет сущность на бэкенде.
func (l *Live[T]) DeleteByID(ctx context.Context, id string) (model.Response[T], error) {
	return l.envelope(ctx, http.MethodDelete, l.itemPath(id), nil)
}

// Update отправляет частичное обновление; семантика слияния определяется бэкендом.
func (l *Live[T]) Update(ctx context.Context, id string, patch model.Patch) (model.Response[T], error) {
	return l.envelope(ctx, http.MethodPatch, l.itemPath(id), patch)
}
