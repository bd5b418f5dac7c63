package validation

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   *int   `json:"age" validate:"omitempty,min=0"`
	Code  string `json:"code" validate:"omitempty,min=3"`
}

func TestToDetails_UsesJSONNames(t *testing.T) {
	v := validator.New()
	RegisterJSONNames(v)

	age := -1
	err := v.Struct(sample{Email: "nope", Age: &age, Code: "ab"})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, "is required", d["name"])
	assert.Equal(t, "must be a valid email", d["email"])
	assert.Equal(t, "must be at least 0", d["age"])
	assert.Equal(t, "must be at least 3 characters long", d["code"])
}

func TestToDetails_JSONErrors(t *testing.T) {
	var s sample
	err := json.Unmarshal([]byte(`{"name": 12}`), &s)
	assert.Equal(t, map[string]string{"name": "must be of type string"}, ToDetails(err))

	err = json.Unmarshal([]byte(`{"name":`), &s)
	assert.Equal(t, "invalid json", ToDetails(err)["payload"])

	assert.Equal(t, "request body is empty", ToDetails(io.EOF)["payload"])
	assert.Equal(t, "invalid payload", ToDetails(errors.New("x"))["payload"])
	assert.Nil(t, ToDetails(nil))
}

func TestIsFieldError(t *testing.T) {
	v := validator.New()
	err := v.Struct(sample{})
	require.Error(t, err)

	assert.True(t, IsFieldError(err))
	assert.False(t, IsFieldError(io.EOF))
	assert.False(t, IsFieldError(json.Unmarshal([]byte(`{`), &sample{})))
	assert.False(t, IsFieldError(nil))
}
