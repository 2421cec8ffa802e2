package models

// Metrics описывает метрики соблюдения диеты пользователем.
// Имена JSON-полей являются частью публичного API.
type Metrics struct {
	TotalNumberOfMeals               int `json:"totalNumberOfMeals"`
	TotalNumberOfMealsInDiet         int `json:"totalNumberOfMealsInDiet"`
	TotalNumberOfMealsOffDiet        int `json:"totalNumberOfMealsOffDiet"`
	BestSequenceOfMealsWithinTheDiet int `json:"bestSequenceOfMealsWithinTheDiet"`
}
