package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/repository"
)

// itemResponse отвечает на запрос одной сущности, data содержит объект, а не массив.
type itemResponse[T any] struct {
	OK   bool   `json:"ok"`
	Data T      `json:"data"`
	Msg  string `json:"msg"`
}

// resource обслуживает коллекцию сущностей одного вида.
type resource[T any] struct {
	kind   repository.Kind
	repo   repository.Repository[T]
	logger *zap.Logger
}

func newResource[T any](kind repository.Kind, repo repository.Repository[T], logger *zap.Logger) *resource[T] {
	return &resource[T]{
		kind:   kind,
		repo:   repo,
		logger: logger.With(zap.String("kind", kind.Name)),
	}
}

// mount регистрирует маршруты коллекции. Изменения требуют токена.
func (res *resource[T]) mount(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route(res.kind.Path, func(r chi.Router) {
		r.Get("/", res.list)
		r.Get("/{id}", res.get)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/", res.create)
			r.Patch("/{id}", res.update)
			r.Delete("/{id}", res.remove)
		})
	})
}

func (res *resource[T]) notFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, model.Failure[T](fmt.Sprintf("%s %s not found", res.kind.Name, id)))
}

func (res *resource[T]) internalError(w http.ResponseWriter, op string, err error) {
	res.logger.Error(op+" error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, model.Failure[T](http.StatusText(http.StatusInternalServerError)))
}

func (res *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	resp, err := res.repo.ListAll(r.Context())
	if err != nil {
		res.internalError(w, "list", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (res *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, found, err := res.repo.GetByID(r.Context(), id)
	if err != nil {
		res.internalError(w, "get", err)
		return
	}
	if !found {
		res.notFound(w, id)
		return
	}

	writeJSON(w, http.StatusOK, itemResponse[T]{OK: true, Data: item, Msg: res.kind.Name + " found"})
}

func (res *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	var draft T
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Failure[T]("malformed request body"))
		return
	}

	resp, err := res.repo.Create(r.Context(), draft)
	if err != nil {
		res.internalError(w, "create", err)
		return
	}
	if !resp.OK {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (res *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Failure[T]("malformed request body"))
		return
	}

	if _, found, err := res.repo.GetByID(r.Context(), id); err != nil {
		res.internalError(w, "update", err)
		return
	} else if !found {
		res.notFound(w, id)
		return
	}

	resp, err := res.repo.Update(r.Context(), id, patch)
	if err != nil {
		res.internalError(w, "update", err)
		return
	}
	if !resp.OK {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (res *resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp, err := res.repo.DeleteByID(r.Context(), id)
	if err != nil {
		res.internalError(w, "delete", err)
		return
	}
	if !resp.OK {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
