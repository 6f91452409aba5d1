package user

import (
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = "one of username or email is required"
)

// InitValidators registers the user validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	core.RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, usernameOrEmailTag, usernameOrEmailText)
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	return IsValidRole(fl.Field().String())
}

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// userStructValidation checks that one of Username or Email is provided.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		if len(nu.Username) == 0 && len(nu.Email) == 0 {
			sl.ReportError(nu.Username, "username", "Username", usernameOrEmailTag, "")
			sl.ReportError(nu.Email, "email", "Email", usernameOrEmailTag, "")
		}
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
