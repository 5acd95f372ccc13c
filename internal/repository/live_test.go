package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/catalog"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/transport"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newClient(url string) *transport.Client {
	return transport.NewClient(url, transport.Options{
		Timeout:      time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	})
}

func TestLive_GetByIDAcceptsArray(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"data":[{"_id":"serv-1","name":"Manicura","price":10}],"msg":""}`))
	}))
	defer ts.Close()

	repo := repository.NewLive[model.Service](repository.KindServices, newClient(ts.URL), nil, nil)

	got, found, err := repo.GetByID(context.Background(), "serv-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Manicura", got.Name)
}

func TestLive_SendsToken(t *testing.T) {
	var token, path string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get(transport.HeaderToken)
		path = r.URL.Path
		_ = json.NewEncoder(w).Encode(model.Success[model.Product]("product deleted"))
	}))
	defer ts.Close()

	repo := repository.NewLive[model.Product](repository.KindProducts, newClient(ts.URL), staticToken("abc"), nil)

	resp, err := repo.DeleteByID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "abc", token)
	assert.Equal(t, "/products/prod-1", path)
}

func TestLive_ServerErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	repo := repository.NewLive[model.Workshop](repository.KindWorkshops, newClient(ts.URL), nil, nil)

	_, err := repo.ListAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, transport.StatusOf(err))

	_, _, err = repo.GetByID(context.Background(), "tall-1")
	require.Error(t, err)
}

// liveCatalog поднимает тестовый бэкенд и возвращает живой каталог с действующим токеном.
func liveCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)
	backend := handler.NewHandler(catalog.New(catalog.Options{Mock: true}, nil, nil), nil, auth, 0)
	ts := httptest.NewServer(backend.SetupRouter())
	t.Cleanup(ts.Close)

	token, err := auth.Issue(model.UserProfile{UID: "u-1", Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)

	return catalog.New(catalog.Options{}, newClient(ts.URL+"/api"), staticToken(token))
}

func TestLive_RoundTripAgainstFixtureBackend(t *testing.T) {
	ctx := context.Background()
	cat := liveCatalog(t)

	created, err := cat.Products.Create(ctx, model.Product{Name: "Esmalte Rojo", Price: 15000, Quantity: 5})
	require.NoError(t, err)
	require.True(t, created.OK, created.Msg)
	require.Len(t, created.Data, 1)
	id := created.Data[0].ID

	got, found, err := cat.Products.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.Data[0], got)

	updated, err := cat.Products.Update(ctx, id, model.Patch{"quantity": 7})
	require.NoError(t, err)
	require.True(t, updated.OK, updated.Msg)
	assert.Equal(t, 7, updated.Data[0].Quantity)
	assert.Equal(t, id, updated.Data[0].ID)

	list, err := cat.Products.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Data, 5)

	deleted, err := cat.Products.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted.OK)

	_, found, err = cat.Products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLive_NotFoundAsFailureEnvelope(t *testing.T) {
	ctx := context.Background()
	cat := liveCatalog(t)

	resp, err := cat.Workshops.DeleteByID(ctx, "tall-missing")
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Msg, "not found")

	upd, err := cat.Services.Update(ctx, "serv-missing", model.Patch{"price": 1})
	require.NoError(t, err)
	assert.False(t, upd.OK)
}

func TestLive_MutationWithoutToken(t *testing.T) {
	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)
	backend := handler.NewHandler(catalog.New(catalog.Options{Mock: true}, nil, nil), nil, auth, 0)
	ts := httptest.NewServer(backend.SetupRouter())
	defer ts.Close()

	repo := repository.NewLive[model.Service](repository.KindServices, newClient(ts.URL+"/api"), nil, nil)

	_, err := repo.Create(context.Background(), model.Service{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, transport.StatusOf(err))
}
