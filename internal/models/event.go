package models

import "time"

// Типы событий об изменении приёмов пищи.
const (
	MealCreated = "created"
	MealUpdated = "updated"
	MealDeleted = "deleted"
)

// MealEvent публикуется в RabbitMQ после каждого изменения приёма пищи.
type MealEvent struct {
	Type   string    `json:"type"`
	MealID string    `json:"meal_id"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}
