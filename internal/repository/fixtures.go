package repository

import (
	"time"

	"github.com/mmeshcher/storefront/internal/model"
)

const fixtureOwner = "user-0001"

var fixtureDate = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

// SeedServices возвращает набор услуг для режима фикстур. Каждый вызов возвращает новый срез.
func SeedServices() []model.Service {
	return []model.Service{
		{ID: "serv-0001", Name: "Manicura clásica", Description: "Limado, cutícula y esmalte tradicional", Price: 25000, User: fixtureOwner, Duration: 45},
		{ID: "serv-0002", Name: "Uñas acrílicas", Description: "Set completo de acrílico con diseño básico", Price: 80000, User: fixtureOwner, Duration: 120},
		{ID: "serv-0003", Name: "Pedicura spa", Description: "Exfoliación, hidratación y esmaltado", Price: 40000, User: fixtureOwner, Duration: 60},
		{ID: "serv-0004", Name: "Esmaltado semipermanente", Description: "Color de larga duración con lámpara UV", Price: 35000, User: fixtureOwner, Duration: 50},
	}
}

// SeedProducts возвращает набор товаров для режима фикстур.
func SeedProducts() []model.Product {
	return []model.Product{
		{ID: "prod-0001", Name: "Esmalte Nude", Description: "Esmalte tono nude 15ml", Price: 18000, User: fixtureOwner, Quantity: 12, Category: "esmaltes", CreatedAt: fixtureDate, UpdatedAt: fixtureDate},
		{ID: "prod-0002", Name: "Lima profesional", Description: "Lima 180/240 lavable", Price: 6000, User: fixtureOwner, Quantity: 40, Category: "herramientas", CreatedAt: fixtureDate, UpdatedAt: fixtureDate},
		{ID: "prod-0003", Name: "Aceite de cutícula", Description: "Aceite nutritivo con vitamina E", Price: 15000, User: fixtureOwner, Quantity: 3, Category: "cuidado", CreatedAt: fixtureDate, UpdatedAt: fixtureDate},
		{ID: "prod-0004", Name: "Top coat brillante", Description: "Capa final de secado rápido", Price: 22000, User: fixtureOwner, Quantity: 0, Category: "esmaltes", CreatedAt: fixtureDate, UpdatedAt: fixtureDate},
	}
}

// SeedWorkshops возвращает набор мастер-классов для режима фикстур.
func SeedWorkshops() []model.Workshop {
	return []model.Workshop{
		{ID: "tall-0001", Name: "Nail art para principiantes", Description: "Técnicas básicas de decoración", Price: 120000, User: fixtureOwner, Date: fixtureDate.AddDate(0, 1, 0), Capacity: 10, Location: "Sede centro"},
		{ID: "tall-0002", Name: "Acrílico avanzado", Description: "Esculpido y encapsulado", Price: 250000, User: fixtureOwner, Date: fixtureDate.AddDate(0, 2, 0), Capacity: 6, Location: "Sede norte"},
	}
}
