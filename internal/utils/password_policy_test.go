package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	attributes := []string{"ghopper", "grace.hopper@navy.mil", "Grace", "Hopper"}

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "acceptable", password: "Tr1cky-Lantern-42"},
		{name: "too short", password: "Ab1-x7", wantErr: ErrPasswordTooShort},
		{name: "numeric", password: "0123456789", wantErr: ErrPasswordNumeric},
		{name: "common", password: "Password123", wantErr: ErrPasswordCommon},
		{name: "contains username", password: "xx-ghopper-xx", wantErr: ErrPasswordTooSimilar},
		{name: "contains email part", password: "hopper!forever", wantErr: ErrPasswordTooSimilar},
		{name: "three letter email part", password: "milestone-77", wantErr: ErrPasswordTooSimilar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, attributes...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePasswordIgnoresTinyAttributes(t *testing.T) {
	assert.NoError(t, ValidatePassword("al-bundy-shoes", "al", ""))
}
