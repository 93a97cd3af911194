package entities

import (
	"github.com/go-playground/validator/v10"

	"github.com/4DevsO/qtut-b4a/internal/errs"
)

var validate = validator.New()

// ValidatedUser is a User whose sign-up fields have been checked.
type ValidatedUser struct {
	*User
}

func NewValidatedUser(user *User) (*ValidatedUser, error) {
	if err := validateSignUp(user); err != nil {
		return nil, err
	}
	return &ValidatedUser{User: user}, nil
}

func (vu *ValidatedUser) GetUser() *User {
	return vu.User
}

func validateSignUp(u *User) error {
	if validate.Var(u.Username, "required") != nil {
		return errs.New(errs.CodeUsernameMissing, "bad or missing username")
	}
	if validate.Var(u.Password, "required") != nil {
		return errs.New(errs.CodePasswordMissing, "password is required")
	}
	if validate.Var(u.Email, "required") != nil {
		return errs.New(errs.CodeEmailMissing, "you must provide an email")
	}
	if validate.Var(u.Email, "email") != nil {
		return errs.New(errs.CodeInvalidEmail, "email address format is invalid")
	}
	return nil
}
