package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/storage"
)

// CreateMeal вставляет новый приём пищи и возвращает его ID.
func (s *Storage) CreateMeal(ctx context.Context, meal models.Meal) (string, error) {
	const op = "storage.CreateMeal"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO meals (id, user_id, name, description, date_and_hour, in_diet)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		meal.ID, meal.UserID, meal.Name, meal.Description, meal.DateAndHour.UTC(), meal.InDiet)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return meal.ID, nil
}

// ReadMeal возвращает приём пищи по ID.
func (s *Storage) ReadMeal(ctx context.Context, id string) (*models.Meal, error) {
	const op = "storage.ReadMeal"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, name, description, date_and_hour, in_diet
			  FROM meals WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var meal models.Meal
	err := row.Scan(&meal.ID, &meal.UserID, &meal.Name, &meal.Description, &meal.DateAndHour, &meal.InDiet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrMealNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	meal.DateAndHour = meal.DateAndHour.UTC()
	return &meal, nil
}

// UpdateMeal перезаписывает приём пищи и возвращает количество изменённых строк.
// Владелец записи не меняется.
func (s *Storage) UpdateMeal(ctx context.Context, meal models.Meal) (int, error) {
	const op = "storage.UpdateMeal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE meals
			  SET name = $1, description = $2, date_and_hour = $3, in_diet = $4
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query,
		meal.Name, meal.Description, meal.DateAndHour.UTC(), meal.InDiet, meal.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveMeal удаляет приём пищи по ID и возвращает количество удалённых строк.
func (s *Storage) RemoveMeal(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveMeal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListMealsByUser возвращает все приёмы пищи пользователя в порядке их записи.
func (s *Storage) ListMealsByUser(ctx context.Context, userID string) ([]models.Meal, error) {
	const op = "storage.ListMealsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, name, description, date_and_hour, in_diet
			  FROM meals
			  WHERE user_id = $1
			  ORDER BY seq`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Meal
	for rows.Next() {
		var meal models.Meal
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.Name, &meal.Description,
			&meal.DateAndHour, &meal.InDiet); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		meal.DateAndHour = meal.DateAndHour.UTC()
		result = append(result, meal)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
