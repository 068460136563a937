package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"star-burger/internal/model"

	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct converts validator failures into a field-keyed ValidationError.
func validateStruct(v *validator.Validate, s any) *model.ValidationError {
	verr := model.NewValidationError()

	err := v.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("non_field_errors", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return verr
}

// fieldPath drops the root struct name: "OrderRequest.products[0].quantity"
// becomes "products[0].quantity".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "e164":
		return "Enter a valid phone number."
	case "min":
		if fe.Kind() == reflect.Slice {
			return "This list may not be empty."
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
