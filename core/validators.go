package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

const notBlankTag = "notblank"

// messages overrides or extends the stock english messages, by tag.
var messages = map[string]string{
	notBlankTag:     "this field cannot be blank",
	"required":      "this field is required",
	"required_with": "this field is required",
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	locale := en.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")
	return translator
}

// jsonFieldName reports fields by their json name; "-" hides a field.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// InitValidators registers the shared tags, messages and field naming on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(jsonFieldName)
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)

	for tag, text := range messages {
		registerTranslation(validate, translator, tag, text, true)
	}
}

// RegisterCustomTranslation sets the message reported for a custom tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	registerTranslation(validate, translator, tag, text, false)
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	register := func(t ut.Translator) error { return t.Add(tag, text, override) }
	translate := func(t ut.Translator, fe validator.FieldError) string {
		msg, _ := t.T(tag, fe.Field())
		return msg
	}
	_ = validate.RegisterTranslation(tag, translator, register, translate)
}

// TranslateValidationErrors turns validator errors into a ValidationError with translated field messages.
func TranslateValidationErrors(verrs validator.ValidationErrors, translator ut.Translator) *ValidationError {
	fields := make([]FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{Field: verr.Field(), Error: verr.Translate(translator)})
	}
	return &ValidationError{Err: errors.New("invalid data"), Fields: fields}
}

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
