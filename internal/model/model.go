// Package model содержит доменные сущности клиента витрины.
package model

import "time"

// Entity описывает сущность каталога с неизменяемым строковым идентификатором.
type Entity[T any] interface {
	EntityID() string
	WithID(id string) T
}

// Service описывает услугу студии.
type Service struct {
	ID          string  `json:"_id,omitempty"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"img,omitempty"`
	User        string  `json:"user,omitempty"`
	Duration    int     `json:"duration,omitempty" validate:"gte=0"`
}

// EntityID возвращает идентификатор услуги.
func (s Service) EntityID() string { return s.ID }

// WithID возвращает копию услуги с указанным идентификатором.
func (s Service) WithID(id string) Service {
	s.ID = id
	return s
}

// Product описывает товар с остатком на складе.
type Product struct {
	ID          string    `json:"_id,omitempty"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	Image       string    `json:"img,omitempty"`
	User        string    `json:"user,omitempty"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	Category    string    `json:"category,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	Version     int       `json:"__v"`
}

// EntityID возвращает идентификатор товара.
func (p Product) EntityID() string { return p.ID }

// WithID возвращает копию товара с указанным идентификатором.
func (p Product) WithID(id string) Product {
	p.ID = id
	return p
}

// Stamped возвращает копию нового товара с отметками создания на момент now.
func (p Product) Stamped(now time.Time) Product {
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 0
	return p
}

// Revised возвращает копию товара как следующую ревизию prev: дата создания
// сохраняется, __v увеличивается.
func (p Product) Revised(prev Product, now time.Time) Product {
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = now
	p.Version = prev.Version + 1
	return p
}

// Workshop описывает мастер-класс (taller) с ограниченным числом мест.
type Workshop struct {
	ID          string    `json:"_id,omitempty"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price" validate:"gte=0"`
	Image       string    `json:"img,omitempty"`
	User        string    `json:"user,omitempty"`
	Date        time.Time `json:"date,omitzero"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	Location    string    `json:"location,omitempty"`
}

// EntityID возвращает идентификатор мастер-класса.
func (w Workshop) EntityID() string { return w.ID }

// WithID возвращает копию мастер-класса с указанным идентификатором.
func (w Workshop) WithID(id string) Workshop {
	w.ID = id
	return w
}

// Response описывает конверт {ok, data, msg}, в котором возвращаются операции над каталогом.
// При OK == false поле Data пустое, Msg заполнено всегда.
type Response[T any] struct {
	OK   bool   `json:"ok"`
	Data []T    `json:"data,omitempty"`
	Msg  string `json:"msg"`
}

// Success формирует успешный конверт.
func Success[T any](msg string, data ...T) Response[T] {
	return Response[T]{OK: true, Data: data, Msg: msg}
}

// Failure формирует конверт с ошибкой без данных.
func Failure[T any](msg string) Response[T] {
	return Response[T]{OK: false, Msg: msg}
}

// Patch содержит частичное обновление сущности: имя JSON-поля и новое значение.
type Patch map[string]any

// UserProfile описывает аутентифицированного пользователя.
type UserProfile struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Credentials содержит данные для входа.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration содержит данные для регистрации нового пользователя.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse описывает ответ эндпоинтов /auth/login, /auth/register и /auth/renew-token.
type AuthResponse struct {
	OK       bool         `json:"ok"`
	Token    string       `json:"token,omitempty"`
	UserData *UserProfile `json:"userData,omitempty"`
	Msg      string       `json:"msg,omitempty"`
}

// Session описывает текущую сессию. Непустой токен сам по себе не означает валидность.
type Session struct {
	Token string
	User  *UserProfile
}

// CartLine описывает позицию корзины. Инвариант: 0 < RequestedCount <= MaxAvailable.
type CartLine struct {
	EntityID       string  `json:"entityId"`
	Name           string  `json:"name,omitempty"`
	UnitPrice      float64 `json:"unitPrice"`
	RequestedCount int     `json:"requestedCount"`
	MaxAvailable   int     `json:"maxAvailable"`
}

// Subtotal возвращает стоимость позиции.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.RequestedCount)
}

// CartState содержит упорядоченные позиции, уникальные по EntityID, и их сумму.
type CartState struct {
	Lines []CartLine `json:"lines"`
	Total float64    `json:"total"`
}

// NewCartState собирает состояние корзины и пересчитывает итог.
func NewCartState(lines []CartLine) CartState {
	copied := make([]CartLine, len(lines))
	copy(copied, lines)

	var total float64
	for _, l := range copied {
		total += l.Subtotal()
	}

	return CartState{Lines: copied, Total: total}
}

// ModalVisibility сообщает об открытии или закрытии окна корзины. Не сохраняется.
type ModalVisibility struct {
	Open bool `json:"open"`
}
