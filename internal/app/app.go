// Package app собирает компоненты клиента витрины по конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/cart"
	"github.com/mmeshcher/storefront/internal/catalog"
	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/eventbus"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/session"
	"github.com/mmeshcher/storefront/internal/storage"
	"github.com/mmeshcher/storefront/internal/transport"
)

// ErrUnknownKind возвращается для неизвестного вида сущности.
var ErrUnknownKind = errors.New("unknown entity kind")

// ErrNotFound возвращается, когда сущность для корзины не найдена в каталоге.
var ErrNotFound = errors.New("entity not found")

// App содержит собранные компоненты клиента.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   storage.Store
	Client  *transport.Client
	Bus     *eventbus.Bus
	Session *session.Manager
	Catalog *catalog.Catalog
	Cart    *cart.Aggregator
}

// NewLogger создаёт production-логгер с уровнем level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

// New открывает хранилище и собирает сессию, каталог и корзину.
// Режим каталога выбирается один раз по cfg.MockMode.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client := transport.NewClient(cfg.APIBaseURL, transport.Options{
		Timeout:  cfg.RequestTimeout,
		RetryMax: cfg.RetryMax,
		Logger:   logger,
	})

	sess, err := session.NewManager(ctx, client, store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	bus := eventbus.New(logger)

	agg, err := cart.NewAggregator(ctx, store, bus, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	cat := catalog.New(catalog.Options{
		Mock:    cfg.MockMode,
		Latency: cfg.MockLatency,
		Logger:  logger,
	}, client, sess)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Client:  client,
		Bus:     bus,
		Session: sess,
		Catalog: cat,
		Cart:    agg,
	}, nil
}

// Close закрывает долговременное хранилище.
func (a *App) Close() error {
	return a.Store.Close()
}

// KindByName находит вид сущности по имени или пути коллекции.
func KindByName(name string) (repository.Kind, error) {
	for _, k := range repository.Kinds() {
		if name == k.Name || name == k.Name+"s" || "/"+name == k.Path {
			return k, nil
		}
	}
	return repository.Kind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// CartItem находит сущность в каталоге и строит позицию корзины с ограничением по её виду.
func (a *App) CartItem(ctx context.Context, kind repository.Kind, id string) (cart.Item, error) {
	var (
		item  cart.Item
		found bool
		err   error
	)

	switch kind {
	case repository.KindProducts:
		var p model.Product
		p, found, err = a.Catalog.Products.GetByID(ctx, id)
		item = cart.ItemFromProduct(p)
	case repository.KindWorkshops:
		var w model.Workshop
		w, found, err = a.Catalog.Workshops.GetByID(ctx, id)
		item = cart.ItemFromWorkshop(w)
	case repository.KindServices:
		var s model.Service
		s, found, err = a.Catalog.Services.GetByID(ctx, id)
		item = cart.ItemFromService(s)
	default:
		return cart.Item{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind.Name)
	}

	if err != nil {
		return cart.Item{}, err
	}
	if !found {
		return cart.Item{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind.Name, id)
	}
	return item, nil
}
