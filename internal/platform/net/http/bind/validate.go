// Package bind turns request input into typed values and validates them
package bind

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

var (
	vOnce  sync.Once
	valid  *validator.Validate
	transl ut.Translator
)

// validate returns the shared validator; messages name fields by their json tag
func validate() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		loc := en.New()
		transl, _ = ut.New(loc, loc).GetTranslator("en")

		valid = validator.New(validator.WithRequiredStructEnabled())
		valid.RegisterTagNameFunc(jsonName)
		_ = entrans.RegisterDefaultTranslations(valid, transl)
		short(valid, "min", "{0} must be at least {1}")
		short(valid, "max", "{0} must be at most {1}")
	})
	return valid, transl
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// short overrides the default translation for tag
func short(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, transl,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// firstViolation returns the field and translated message of the first failed rule
func firstViolation(err error) (field, msg string) {
	_, tr := validate()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(tr)
	}
	return "", err.Error()
}
