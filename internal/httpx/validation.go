package httpx

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/MikeMC777/storefront/internal/country"
	"github.com/MikeMC777/storefront/internal/forms"
)

var setupOnce sync.Once

// SetupValidation makes gin's validator report form field names and adds the
// "country" tag. Safe to call more than once.
func SetupValidation() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
			return country.Valid(fl.Field().String())
		})
	})
}

// BindErrors turns a binding error into per-field messages. Errors that are
// not validation errors are reported under "__all__".
func BindErrors(err error) forms.Errors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return forms.Errors{"__all__": err.Error()}
	}
	out := forms.Errors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return forms.Required
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "country":
		return "Select a valid country."
	case "oneof":
		return "Select a valid choice."
	}
	return "Invalid value."
}
