package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/daily-diet/internal/models"
)

func TestStatusOKWithData(t *testing.T) {
	body, err := json.Marshal(StatusOKWithData(map[string]any{"id": "abc"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","data":{"id":"abc"}}`, string(body))
}

func TestError(t *testing.T) {
	body, err := json.Marshal(Error("no data"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Error","error":"no data"}`, string(body))
}

func TestValidationError(t *testing.T) {
	validate := validator.New()
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{
			name:    "missing meal fields",
			payload: models.DummyMeal{},
			want: "field Name is a required field, " +
				"field DateAndHour is a required field, field InDiet is a required field",
		},
		{
			name:    "too long name",
			payload: models.DummyUser{Name: string(long), Age: 20},
			want:    "field Name must be at most 255 characters long",
		},
		{
			name:    "negative age",
			payload: models.DummyUser{Name: "John", Age: -1},
			want:    "field Age must be greater than 0",
		},
		{
			name:    "age out of range",
			payload: models.DummyUser{Name: "John", Age: 151},
			want:    "field Age must be at most 150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.payload)
			require.Error(t, err)

			resp := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}
