package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var validate = validator.New()

type Validatable interface {
	Validate() error
}

// validateSection checks the validate tags of one config section and reports
// each failing field by the flag that sets it.
func validateSection(section any) error {
	err := validate.Struct(section)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	typ := reflect.Indirect(reflect.ValueOf(section)).Type()
	var errs error
	for _, fe := range fieldErrs {
		name := fe.Field()
		if field, ok := typ.FieldByName(fe.StructField()); ok && field.Tag.Get("flag") != "" {
			name = "--" + field.Tag.Get("flag")
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %s", name, describe(fe)))
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

var _ Validatable = (*Node)(nil)
