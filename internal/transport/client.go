// Package transport предоставляет HTTP-клиент для обращения к бэкенду каталога.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// HeaderToken задаёт заголовок, в котором передаётся токен сессии.
const HeaderToken = "x-token"

// ErrUnavailable возвращается, когда автомат защиты разомкнут и запрос не отправлялся.
var ErrUnavailable = errors.New("backend unavailable")

// Error описывает неуспешный обмен с бэкендом: сетевую ошибку или ответ со статусом не 2xx.
type Error struct {
	Method  string
	Path    string
	Status  int
	Payload []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusOf возвращает HTTP-статус из ошибки транспорта или 0.
func StatusOf(err error) int {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Status
	}
	return 0
}

// Result содержит ответ бэкенда со статусом 2xx.
type Result struct {
	Status  int
	Payload []byte
}

// Decode разбирает JSON-тело ответа в v.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Options задаёт таймауты, повторы и параметры автомата защиты.
type Options struct {
	Timeout          time.Duration
	RetryMax         int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RetryMax < 0 {
		o.RetryMax = 0
	}
	if o.RetryWaitMin <= 0 {
		o.RetryWaitMin = 100 * time.Millisecond
	}
	if o.RetryWaitMax <= 0 {
		o.RetryWaitMax = time.Second
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Client инкапсулирует HTTP-взаимодействие с бэкендом каталога.
// GET-запросы повторяются при сетевых ошибках и ответах 5xx, изменяющие запросы не повторяются.
type Client struct {
	baseURL string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	logger  *zap.Logger
}

// NewClient создаёт HTTP-клиент для обращения к бэкенду по указанному адресу.
func NewClient(baseURL string, opts Options) *Client {
	opts = opts.withDefaults()

	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	c := &Client{
		baseURL: base,
		reads:   newRetryClient(opts, opts.RetryMax),
		writes:  newRetryClient(opts, 0),
		logger:  opts.Logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// отмена вызывающей стороной ничего не говорит о бэкенде
			var aborted callerAborted
			if errors.As(err, &aborted) {
				return true
			}
			// ответы 4xx означают, что бэкенд жив
			status := StatusOf(err)
			return err == nil || (status >= 400 && status < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

func newRetryClient(opts Options, retryMax int) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.RetryMax = retryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.Logger = leveledLogger{opts.Logger.Sugar()}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return rc
}

// Do выполняет запрос method к пути path. body кодируется в JSON, если не nil.
// Ответ со статусом не 2xx возвращается как *Error с телом ответа.
func (c *Client) Do(ctx context.Context, method, path string, body any, header http.Header) (*Result, error) {
	if c == nil || c.baseURL == "" {
		return nil, &Error{Method: method, Path: path, Err: errors.New("transport client not configured")}
	}

	if err := ctx.Err(); err != nil {
		return nil, &Error{Method: method, Path: path, Err: err}
	}

	res, err := c.breaker.Execute(func() (*Result, error) {
		res, err := c.do(ctx, method, path, body, header)
		if err != nil && ctx.Err() != nil {
			return nil, callerAborted{err: err}
		}
		return res, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &Error{Method: method, Path: path, Err: ErrUnavailable}
	}
	var aborted callerAborted
	if errors.As(err, &aborted) {
		return nil, aborted.err
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header) (*Result, error) {
	var raw []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
		}
		raw = encoded
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytesOrNil(raw))
	if err != nil {
		return nil, &Error{Method: method, Path: path, Err: fmt.Errorf("create request: %w", err)}
	}

	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.writes
	if method == http.MethodGet {
		client = c.reads
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Method: method, Path: path, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("backend returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &Error{Method: method, Path: path, Status: resp.StatusCode, Payload: payload}
	}

	return &Result{Status: resp.StatusCode, Payload: payload}, nil
}

// callerAborted помечает ошибку запроса, прерванного контекстом вызывающей стороны.
type callerAborted struct {
	err error
}

func (e callerAborted) Error() string { return e.err.Error() }
func (e callerAborted) Unwrap() error { return e.err }

func bytesOrNil(raw []byte) any {
	if raw == nil {
		return nil
	}
	return bytes.NewReader(raw)
}

// leveledLogger адаптирует zap к интерфейсу retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
