package app

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/cart"
	"github.com/mmeshcher/storefront/internal/catalog"
	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/session"
)

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.MockMode = true
	cfg.MockLatency = 0
	cfg.StorageDriver = config.DriverMemory
	return cfg
}

func TestNew_MockMode(t *testing.T) {
	a, err := New(context.Background(), mockConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.Catalog.Mock())
	assert.Equal(t, session.Anonymous, a.Session.State())
	assert.Empty(t, a.Cart.State().Lines)

	resp, err := a.Catalog.Services.ListAll(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Len(t, resp.Data, 4)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := mockConfig()
	cfg.StorageDriver = "floppy"

	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestKindByName(t *testing.T) {
	tests := []struct {
		name string
		want repository.Kind
	}{
		{"product", repository.KindProducts},
		{"products", repository.KindProducts},
		{"services", repository.KindServices},
		{"talleres", repository.KindWorkshops},
		{"workshop", repository.KindWorkshops},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KindByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := KindByName("orders")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestCartItem(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, mockConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	item, err := a.CartItem(ctx, repository.KindWorkshops, "tall-0002")
	require.NoError(t, err)
	assert.Equal(t, 6, item.MaxAvailable)

	item, err = a.CartItem(ctx, repository.KindServices, "serv-0001")
	require.NoError(t, err)
	assert.Equal(t, 1, item.MaxAvailable)

	_, err = a.CartItem(ctx, repository.KindProducts, "prod-9999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCartSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := mockConfig()
	cfg.StorageDriver = config.DriverSQLite
	cfg.StorageDSN = t.TempDir() + "/storefront.db"

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)

	item, err := a.CartItem(ctx, repository.KindProducts, "prod-0001")
	require.NoError(t, err)
	_, err = a.Cart.AddLine(ctx, item)
	require.NoError(t, err)
	want := a.Cart.State()
	require.NoError(t, a.Close())

	b, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, want, b.Cart.State())
}

// TestLiveMode_AgainstFixtureBackend проходит сценарий входа, создания и корзины
// через транспорт против тестового бэкенда.
func TestLiveMode_AgainstFixtureBackend(t *testing.T) {
	ctx := context.Background()

	backend := handler.NewHandler(
		catalog.New(catalog.Options{Mock: true}, nil, nil),
		nil,
		middleware.NewAuthMiddleware("test-secret", time.Hour),
		0,
	)
	ts := httptest.NewServer(backend.SetupRouter())
	defer ts.Close()

	cfg := config.Default()
	cfg.APIBaseURL = ts.URL + "/api"
	cfg.StorageDriver = config.DriverMemory
	cfg.RequestTimeout = 2 * time.Second

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	require.False(t, a.Catalog.Mock())

	resp, err := a.Session.Register(ctx, model.Registration{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.True(t, resp.OK, resp.Msg)

	require.True(t, a.Session.Login(ctx, model.Credentials{Email: "ana@example.com", Password: "secret1"}))
	require.True(t, a.Session.VerifyToken(ctx))
	assert.Equal(t, session.Active, a.Session.State())

	created, err := a.Catalog.Products.Create(ctx, model.Product{Name: "Esmalte Rojo", Price: 15000, Quantity: 2})
	require.NoError(t, err)
	require.True(t, created.OK, created.Msg)
	require.Len(t, created.Data, 1)
	id := created.Data[0].ID

	got, found, err := a.Catalog.Products.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Esmalte Rojo", got.Name)

	item, err := a.CartItem(ctx, repository.KindProducts, id)
	require.NoError(t, err)
	for range 2 {
		_, err = a.Cart.AddLine(ctx, item)
		require.NoError(t, err)
	}
	_, err = a.Cart.AddLine(ctx, item)
	require.ErrorIs(t, err, cart.ErrCapacityExceeded)

	deleted, err := a.Catalog.Products.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted.OK)

	again, err := a.Catalog.Products.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, again.OK)
}
