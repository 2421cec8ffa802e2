package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (id, name, age, session_id, created_at)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Name, user.Age, user.SessionID, user.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.ID, nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"

	query := `SELECT id, name, age, session_id, created_at
			  FROM users WHERE id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, id), op)
}

// GetUserBySession возвращает пользователя, привязанного к сессии.
func (s *Storage) GetUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	const op = "storage.GetUserBySession"

	query := `SELECT id, name, age, session_id, created_at
			  FROM users WHERE session_id = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, sessionID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Age, &user.SessionID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
