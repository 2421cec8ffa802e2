// Package models содержит доменные структуры сервиса: приём пищи, пользователя,
// метрики соблюдения диеты и события об изменении приёмов пищи.
package models

import "time"

// Meal представляет один записанный приём пищи пользователя.
type Meal struct {
	ID          string    `json:"id"`            // Идентификатор приёма пищи (UUID)
	UserID      string    `json:"user_id"`       // Владелец записи
	Name        string    `json:"name"`          // Название
	Description string    `json:"description"`   // Описание
	DateAndHour time.Time `json:"date_and_hour"` // Когда был приём пищи
	InDiet      bool      `json:"in_diet"`       // Входит ли приём пищи в диету
}

// DummyMeal используется для приёма данных из JSON-запроса.
// Дата приходит строкой в формате RFC 3339 и парсится в сервисе.
// InDiet указатель, чтобы отличить отсутствующее поле от false.
type DummyMeal struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	DateAndHour string `json:"date_and_hour" validate:"required"`
	InDiet      *bool  `json:"in_diet" validate:"required"`
}
