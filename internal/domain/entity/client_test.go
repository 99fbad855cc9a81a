package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient(ClientInput{
		Name:    strPtr(" Jane Doe "),
		Email:   strPtr(" Jane@Example.COM "),
		Company: strPtr("Acme"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, "Jane Doe (Acme)", c.DisplayName())
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   ClientInput
	}{
		{"missing name", ClientInput{Email: strPtr("a@b.c")}},
		{"missing email", ClientInput{Name: strPtr("Jane")}},
		{"email without at", ClientInput{Name: strPtr("Jane"), Email: strPtr("jane.example.com")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestClient_UpdateKeepsOriginalOnError(t *testing.T) {
	c, err := NewClient(ClientInput{Name: strPtr("Jane"), Email: strPtr("jane@example.com")})
	require.NoError(t, err)

	err = c.Update(ClientInput{Email: strPtr("broken")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "jane@example.com", c.Email)

	require.NoError(t, c.Update(ClientInput{Phone: strPtr(" 555-0100 ")}))
	assert.Equal(t, "555-0100", c.Phone)
	assert.Equal(t, "Jane", c.DisplayName())
}
