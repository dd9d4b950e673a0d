package auth

import (
	"errors"
	"strconv"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/teamboard/pkg/types"
)

const minPasswordLen = 8

var validate = validator.New(validator.WithRequiredStructEnabled())

type signupInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func validateSignup(username, email, password string) error {
	in := signupInput{Username: username, Email: email, Password: password}
	if err := validate.Struct(in); err != nil {
		return fieldError(err)
	}
	if _, err := strconv.Atoi(username); err == nil {
		return types.InvalidArgumentf("username must not be a number")
	}
	return validatePassword(password)
}

// fieldError reports the first failed rule as an invalid-argument error.
func fieldError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return types.InvalidArgumentf("invalid signup: %v", err)
	}
	fe := errs[0]
	if fe.Tag() == "required" {
		return types.InvalidArgumentf("username, email and password are required")
	}
	return types.InvalidArgumentf("%s %q is not a valid %s", fe.Field(), fe.Value(), fe.Tag())
}

// validatePassword requires minPasswordLen characters with at least one
// upper-case letter, lower-case letter, digit and symbol.
func validatePassword(password string) error {
	if len([]rune(password)) < minPasswordLen {
		return types.InvalidArgumentf("password must be at least %d characters", minPasswordLen)
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return types.InvalidArgumentf("password needs upper and lower case letters, a digit and a symbol")
	}
	return nil
}
