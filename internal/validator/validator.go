// Package validator checks login and signup forms before they reach the
// backend, so obvious mistakes fail without a round trip.
package validator

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldErrors maps a form field to the validation tag it failed.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, tag := range e {
		parts = append(parts, field+": "+tag)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	fieldErrors := make(FieldErrors, len(validateErrs))
	for _, e := range validateErrs {
		fieldErrors[strings.ToLower(e.Field())] = e.Tag()
	}
	return fieldErrors
}

func Login(email string, password string) error {
	type loginForm struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6,max=72"`
	}
	return check(loginForm{Email: email, Password: password})
}

func Signup(username string, email string, password string) error {
	type signupForm struct {
		Username string `validate:"required,min=3,max=32"`
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6,max=72"`
	}
	return check(signupForm{Username: username, Email: email, Password: password})
}
