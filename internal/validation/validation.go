// Package validation проверяет черновики сущностей и учётные данные по тегам validate.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct проверяет структуру по тегам validate.
func Struct(v any) error {
	return get().Struct(v)
}

// Patch проверяет значения частичного обновления, которые должны быть неотрицательными числами.
func Patch(patch map[string]any, nonNegative ...string) error {
	for _, field := range nonNegative {
		v, ok := patch[field]
		if !ok {
			continue
		}
		switch v.(type) {
		case float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("%s: must be a non-negative number", field)
		}
		if err := get().Var(v, "gte=0"); err != nil {
			return fmt.Errorf("%s: must be a non-negative number", field)
		}
	}
	if _, ok := patch["name"]; ok {
		if err := get().Var(patch["name"], "required"); err != nil {
			return errors.New("name: is required")
		}
	}
	return nil
}

// Message превращает ошибку проверки в сообщение для пользователя.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+": is required")
		case "gte":
			parts = append(parts, fmt.Sprintf("%s: must be at least %s", field, fe.Param()))
		case "email":
			parts = append(parts, field+": must be a valid email")
		case "min":
			parts = append(parts, fmt.Sprintf("%s: must be at least %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}

	return strings.Join(parts, "; ")
}
