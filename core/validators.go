package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	ethAddrTag   = "eth_addr_hex"
	ethAddrText  = "must be a valid 0x-prefixed wallet address"
	ethAddrRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

	userTypeTag  = "usertype"
	userTypeText = "must be one of: student, admin"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(ethAddrTag, ethAddrValidation)
	RegisterCustomTranslation(validate, translator, ethAddrTag, ethAddrText)

	_ = validate.RegisterValidation(userTypeTag, userTypeValidation)
	RegisterCustomTranslation(validate, translator, userTypeTag, userTypeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// ethAddrValidation checks the 0x-prefixed 20-byte hex address form.
func ethAddrValidation(fl validator.FieldLevel) bool {
	return ethAddrRegex.MatchString(fl.Field().String())
}

// userTypeValidation restricts a field to the two portal roles.
func userTypeValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "student", "admin":
		return true
	}
	return false
}
