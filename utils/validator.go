package utils

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"auction-marketplace/internal/biddingerrors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// GetValidator returns the singleton instance of the validator.
// decimal.Decimal fields are validated as float64 so numeric tags like gt=0 apply.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// ValidateStruct runs struct tag validation and converts failures into
// a *biddingerrors.ValidationError
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	validErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", biddingerrors.ErrValidation, err)
	}

	verr := &biddingerrors.ValidationError{}
	for _, fe := range validErrs {
		issue := fmt.Sprintf("failed on tag '%s'", fe.Tag())
		if fe.Param() != "" {
			issue = fmt.Sprintf("failed on tag '%s' with param '%s'", fe.Tag(), fe.Param())
		}
		verr.Fields = append(verr.Fields, biddingerrors.FieldError{
			Field: fe.Field(),
			Issue: issue,
		})
	}
	return verr
}
