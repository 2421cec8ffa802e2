// Package repository реализует хранилище пользователей и приёмов пищи
// поверх database/sql. Поддерживаются PostgreSQL (драйвер pgx) и встроенный
// SQLite (modernc); запросы используют общий для обоих диалект.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Регистрация драйвера sqlite для использования с database/sql.
	_ "modernc.org/sqlite"

	"github.com/magabrotheeeer/daily-diet/internal/config"
)

// Storage инкапсулирует соединение с базой данных.
type Storage struct {
	DB     *sql.DB
	Driver string
}

// New открывает соединение с базой данных выбранным драйвером и проверяет его.
func New(driver, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open(driver, storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if driver == config.DriverSQLite {
		// SQLite не допускает параллельной записи, а база в памяти живёт, пока живо соединение.
		db.SetMaxOpenConns(1)
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB:     db,
		Driver: driver,
	}, nil
}

// Ping проверяет доступность базы данных.
func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close закрывает соединение с базой данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}
