package validation

import (
	"mime"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/william251082/fileupload/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("mediatype", isMediaType)
	})
	return validate
}

// isMediaType accepts strings of the form type/subtype[; params].
func isMediaType(fl validator.FieldLevel) bool {
	mt, _, err := mime.ParseMediaType(fl.Field().String())
	return err == nil && strings.Contains(mt, "/")
}

// Validate checks s against its `validate` tags. It returns nil or an
// INVALID_INPUT *errors.AppError.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed")
	}

	messages := make([]string, 0, len(validationErrors))
	appErr := errors.Validation("")
	for _, e := range validationErrors {
		message := formatValidationError(e)
		appErr.WithFieldError(e.Field(), message)
		messages = append(messages, e.Field()+" "+message)
	}
	appErr.Message = "Validation failed: " + strings.Join(messages, "; ")
	return appErr
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + e.Param()
	case "mediatype":
		return "must be a media type such as text/plain"
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return "is invalid"
	}
}
