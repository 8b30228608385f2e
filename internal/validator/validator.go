package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator wraps go-playground/validator with English messages keyed by JSON field name.
type Validator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

// FieldErrors maps JSON field names to human-readable messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, msg := range f {
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

func New() *Validator {
	v := govalidator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	return &Validator{validate: v, trans: trans}
}

// Struct validates dst and returns FieldErrors on failure.
func (v *Validator) Struct(dst any) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(FieldErrors, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return fields
	}
	return err
}
