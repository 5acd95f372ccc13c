// Package catalog собирает репозитории услуг, товаров и мастер-классов
// для выбранного при запуске источника данных.
package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/validation"
)

// Options задаёт режим работы каталога.
type Options struct {
	Mock    bool
	Latency time.Duration
	Logger  *zap.Logger
}

// Catalog содержит репозитории всех видов сущностей.
// Режим выбирается один раз в New и одинаков для всех трёх репозиториев.
type Catalog struct {
	Services  repository.Repository[model.Service]
	Products  repository.Repository[model.Product]
	Workshops repository.Repository[model.Workshop]

	mock bool
}

// New создаёт каталог. В режиме фикстур client и tokens не используются.
func New(opts Options, client repository.Doer, tokens repository.TokenSource) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Catalog{mock: opts.Mock}

	if opts.Mock {
		mo := repository.MockOptions{Latency: opts.Latency, Logger: logger}
		c.Services = withValidation[model.Service](repository.NewMock(repository.KindServices, repository.SeedServices(), mo), "price", "duration")
		c.Products = withValidation[model.Product](repository.NewMock(repository.KindProducts, repository.SeedProducts(), mo), "price", "quantity")
		c.Workshops = withValidation[model.Workshop](repository.NewMock(repository.KindWorkshops, repository.SeedWorkshops(), mo), "price", "capacity")
	} else {
		c.Services = withValidation[model.Service](repository.NewLive[model.Service](repository.KindServices, client, tokens, logger), "price", "duration")
		c.Products = withValidation[model.Product](repository.NewLive[model.Product](repository.KindProducts, client, tokens, logger), "price", "quantity")
		c.Workshops = withValidation[model.Workshop](repository.NewLive[model.Workshop](repository.KindWorkshops, client, tokens, logger), "price", "capacity")
	}

	logger.Info("catalog initialized", zap.Bool("mock", opts.Mock))

	return c
}

// Mock сообщает, работает ли каталог на фикстурах.
func (c *Catalog) Mock() bool { return c.mock }

// validated отклоняет некорректные черновики и изменения до обращения к источнику данных.
// Отказ возвращается неуспешным конвертом, как и прочие ожидаемые отказы.
type validated[T any] struct {
	repository.Repository[T]
	numeric []string
}

func withValidation[T any](repo repository.Repository[T], numeric ...string) repository.Repository[T] {
	return validated[T]{Repository: repo, numeric: numeric}
}

func (v validated[T]) Create(ctx context.Context, draft T) (model.Response[T], error) {
	if err := validation.Struct(draft); err != nil {
		return model.Failure[T](validation.Message(err)), nil
	}
	return v.Repository.Create(ctx, draft)
}

func (v validated[T]) Update(ctx context.Context, id string, patch model.Patch) (model.Response[T], error) {
	if len(patch) == 0 {
		return model.Failure[T]("nothing to update"), nil
	}
	if err := validation.Patch(patch, v.numeric...); err != nil {
		return model.Failure[T](err.Error()), nil
	}
	return v.Repository.Update(ctx, id, patch)
}
