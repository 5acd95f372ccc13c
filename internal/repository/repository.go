// Package repository содержит репозитории сущностей каталога с двумя источниками данных:
// бэкенд через транспорт и набор фикстур в памяти.
package repository

import (
	"context"

	"github.com/mmeshcher/storefront/internal/model"
)

// Repository описывает CRUD-операции над сущностями одного вида.
// Форма конвертов не зависит от источника данных.
//
// GetByID возвращает саму сущность, а не конверт, в отличие от остальных методов.
type Repository[T any] interface {
	ListAll(ctx context.Context) (model.Response[T], error)
	GetByID(ctx context.Context, id string) (T, bool, error)
	Create(ctx context.Context, draft T) (model.Response[T], error)
	DeleteByID(ctx context.Context, id string) (model.Response[T], error)
	Update(ctx context.Context, id string, patch model.Patch) (model.Response[T], error)
}

// Kind описывает вид сущности: путь коллекции на бэкенде и префикс идентификаторов фикстур.
type Kind struct {
	Name     string
	Path     string
	IDPrefix string
}

// Виды сущностей каталога.
var (
	KindServices  = Kind{Name: "service", Path: "/services", IDPrefix: "serv"}
	KindProducts  = Kind{Name: "product", Path: "/products", IDPrefix: "prod"}
	KindWorkshops = Kind{Name: "workshop", Path: "/talleres", IDPrefix: "tall"}
)

// Kinds возвращает все виды сущностей.
func Kinds() []Kind {
	return []Kind{KindServices, KindProducts, KindWorkshops}
}
