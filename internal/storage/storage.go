// Package storage содержит общие для всех хранилищ ошибки.
package storage

import "errors"

var (
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrMealNotFound возвращается, если приём пищи не найден.
	ErrMealNotFound = errors.New("meal not found")
)
