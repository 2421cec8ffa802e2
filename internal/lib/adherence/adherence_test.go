package adherence

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/daily-diet/internal/models"
)

func mealsOf(flags ...bool) []models.Meal {
	meals := make([]models.Meal, 0, len(flags))
	for _, f := range flags {
		meals = append(meals, models.Meal{InDiet: f})
	}
	return meals
}

func TestCompute_TableTests(t *testing.T) {
	tests := []struct {
		name  string
		meals []models.Meal
		want  models.Metrics
	}{
		{
			name:  "mixed history",
			meals: mealsOf(true, true, false, true, true, true, false),
			want: models.Metrics{
				TotalNumberOfMeals:               7,
				TotalNumberOfMealsInDiet:         5,
				TotalNumberOfMealsOffDiet:        2,
				BestSequenceOfMealsWithinTheDiet: 3,
			},
		},
		{
			name:  "single meal in diet",
			meals: mealsOf(true),
			want: models.Metrics{
				TotalNumberOfMeals:               1,
				TotalNumberOfMealsInDiet:         1,
				TotalNumberOfMealsOffDiet:        0,
				BestSequenceOfMealsWithinTheDiet: 1,
			},
		},
		{
			name:  "only off diet",
			meals: mealsOf(false, false),
			want: models.Metrics{
				TotalNumberOfMeals:               2,
				TotalNumberOfMealsInDiet:         0,
				TotalNumberOfMealsOffDiet:        2,
				BestSequenceOfMealsWithinTheDiet: 0,
			},
		},
		{
			name:  "trailing streak is counted",
			meals: mealsOf(false, true, true),
			want: models.Metrics{
				TotalNumberOfMeals:               3,
				TotalNumberOfMealsInDiet:         2,
				TotalNumberOfMealsOffDiet:        1,
				BestSequenceOfMealsWithinTheDiet: 2,
			},
		},
		{
			name:  "first streak is the longest",
			meals: mealsOf(true, true, true, false, true),
			want: models.Metrics{
				TotalNumberOfMeals:               5,
				TotalNumberOfMealsInDiet:         4,
				TotalNumberOfMealsOffDiet:        1,
				BestSequenceOfMealsWithinTheDiet: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.meals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_Empty(t *testing.T) {
	for _, meals := range [][]models.Meal{nil, {}} {
		got, err := Compute(meals)
		require.ErrorIs(t, err, ErrNoMeals)
		assert.Equal(t, models.Metrics{}, got)
	}
}

func TestCompute_Uniform(t *testing.T) {
	for n := 1; n <= 10; n++ {
		allIn := make([]bool, n)
		for i := range allIn {
			allIn[i] = true
		}

		got, err := Compute(mealsOf(allIn...))
		require.NoError(t, err)
		assert.Equal(t, n, got.BestSequenceOfMealsWithinTheDiet)
		assert.Equal(t, n, got.TotalNumberOfMeals)

		got, err = Compute(mealsOf(make([]bool, n)...))
		require.NoError(t, err)
		assert.Equal(t, 0, got.BestSequenceOfMealsWithinTheDiet)
		assert.Equal(t, n, got.TotalNumberOfMealsOffDiet)
	}
}

func TestCompute_Invariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		flags := make([]bool, 1+rnd.Intn(40))
		for j := range flags {
			flags[j] = rnd.Intn(3) > 0
		}

		got, err := Compute(mealsOf(flags...))
		require.NoError(t, err)

		assert.Equal(t, got.TotalNumberOfMeals, got.TotalNumberOfMealsInDiet+got.TotalNumberOfMealsOffDiet)
		assert.LessOrEqual(t, got.BestSequenceOfMealsWithinTheDiet, got.TotalNumberOfMealsInDiet)
		assert.Equal(t, longestRun(flags), got.BestSequenceOfMealsWithinTheDiet, "flags: %v", flags)
	}
}

// longestRun наивная реализация для сверки.
func longestRun(flags []bool) int {
	best := 0
	for i := range flags {
		n := 0
		for j := i; j < len(flags) && flags[j]; j++ {
			n++
		}
		best = max(best, n)
	}
	return best
}
