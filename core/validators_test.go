package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func TestInitValidators(t *testing.T) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)

	type payload struct {
		Username        string `json:"username" validate:"omitempty,alphanum_"`
		Password        string `json:"password" validate:"required"`
		PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	}

	fieldErr := func(t *testing.T, err error) validator.FieldError {
		t.Helper()
		vErrs, ok := err.(validator.ValidationErrors)
		if !ok || len(vErrs) != 1 {
			t.Fatalf("want a single field error, got %v", err)
		}
		return vErrs[0]
	}

	t.Run("valid", func(t *testing.T) {
		err := validate.Struct(payload{Username: "demo_student", Password: "s3cret", PasswordConfirm: "s3cret"})
		if err != nil {
			t.Errorf("Struct() error = %v", err)
		}
	})

	t.Run("username rejects whitespace", func(t *testing.T) {
		err := validate.Struct(payload{Username: "demo student", Password: "s3cret", PasswordConfirm: "s3cret"})
		fe := fieldErr(t, err)
		if fe.Field() != "username" {
			t.Errorf("Field() = %q, want the json tag name", fe.Field())
		}
		if got := fe.Translate(translator); got != alphaNumUnderText {
			t.Errorf("Translate() = %q, want %q", got, alphaNumUnderText)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		err := validate.Struct(payload{Password: "s3cret", PasswordConfirm: "other"})
		fe := fieldErr(t, err)
		if got := fe.Translate(translator); got != eqFieldText {
			t.Errorf("Translate() = %q, want %q", got, eqFieldText)
		}
	})
}
