package authmodel

import (
	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-booklet-session/internal/errors"
)

var validate = validator.New()

// Validate checks the struct tags of a request or response
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "%s", err.Error())
	}
	return nil
}
