package submission

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
)

var (
	statusTag  = "submission_status"
	statusText = "status must be one of Pending, Submitted or Graded"
)

// InitValidators registers the submission validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return IsValidStatus(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}
