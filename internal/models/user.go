package models

import "time"

// User представляет анонимного пользователя, привязанного к сессии.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	SessionID string    `json:"-"` // Никогда не отдаётся наружу
	CreatedAt time.Time `json:"created_at"`
}

// DummyUser используется для приёма данных регистрации из JSON-запроса.
type DummyUser struct {
	Name string `json:"name" validate:"required,max=255"`
	Age  int    `json:"age" validate:"required,gt=0,lte=150"`
}
