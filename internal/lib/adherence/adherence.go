// Package adherence считает метрики соблюдения диеты по истории приёмов пищи.
package adherence

import (
	"errors"

	"github.com/magabrotheeeer/daily-diet/internal/models"
)

// ErrNoMeals возвращается, если у пользователя нет ни одного приёма пищи.
var ErrNoMeals = errors.New("no meals to compute metrics for")

// Compute считает общее число приёмов пищи, число приёмов в диете и вне её,
// а также самую длинную непрерывную серию приёмов в диете.
//
// Порядок meals должен совпадать с порядком записи: серия считается по нему,
// функция ничего не сортирует.
func Compute(meals []models.Meal) (models.Metrics, error) {
	if len(meals) == 0 {
		return models.Metrics{}, ErrNoMeals
	}

	var inDiet, current, best int
	for _, meal := range meals {
		if meal.InDiet {
			inDiet++
			current++
			continue
		}
		best = max(best, current)
		current = 0
	}
	// Серия, которой заканчивается история, тоже учитывается.
	best = max(best, current)

	return models.Metrics{
		TotalNumberOfMeals:               len(meals),
		TotalNumberOfMealsInDiet:         inDiet,
		TotalNumberOfMealsOffDiet:        len(meals) - inDiet,
		BestSequenceOfMealsWithinTheDiet: best,
	}, nil
}
