package models

import (
	"errors"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		username string
		want     error
	}{
		{"plain", "john", nil},
		{"underscore and dash", "john_doe-1", nil},
		{"all symbols", "a.b@c+d-e_f", nil},
		{"cyrillic letters", "повар42", nil},
		{"reserved lower", "me", ErrUsernameReserved},
		{"reserved upper", "ME", ErrUsernameReserved},
		{"reserved mixed", "mE", ErrUsernameReserved},
		{"space and bang", "john doe!", ErrUsernameCharset},
		{"slash", "a/b", ErrUsernameCharset},
		{"empty", "", ErrUsernameEmpty},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateUsername(tt.username); !errors.Is(got, tt.want) {
				t.Fatalf("ValidateUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestUserPassword(t *testing.T) {
	t.Parallel()

	var user User
	if user.CheckPassword("anything") {
		t.Fatal("CheckPassword succeeded without a stored hash")
	}

	if err := user.SetPassword("s3cret-pass"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in plain text")
	}
	if !user.CheckPassword("s3cret-pass") {
		t.Fatal("CheckPassword rejected the correct password")
	}
	if user.CheckPassword("wrong") {
		t.Fatal("CheckPassword accepted a wrong password")
	}
}

func TestMeasurementUnitValid(t *testing.T) {
	t.Parallel()

	if !DefaultMeasurementUnit.Valid() {
		t.Fatalf("default unit %q is not valid", DefaultMeasurementUnit)
	}
	if !MeasurementUnit("г").Valid() {
		t.Fatal("unit г should be valid")
	}
	if MeasurementUnit("furlong").Valid() {
		t.Fatal("unit furlong should be invalid")
	}
}
