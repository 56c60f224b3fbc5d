package web

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"

	"github.com/adamwoolhether/tablero/web/errs"
)

// checker pairs the struct validator with its English messages.
type checker struct {
	v  *validator.Validate
	tr ut.Translator
}

var loadChecker = sync.OnceValue(func() checker {
	v := validator.New(validator.WithRequiredStructEnabled())

	tr, found := ut.New(en.New()).GetTranslator("en")
	if !found {
		panic("web: no en translator")
	}
	if err := entrans.RegisterDefaultTranslations(v, tr); err != nil {
		panic(err)
	}

	// Report fields by their JSON name so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return checker{v: v, tr: tr}
})

// Validate checks val against its declared tags. Failures are returned as
// [errs.FieldErrors] keyed by JSON name.
func Validate(val any) error {
	c := loadChecker()

	err := c.v.Struct(val)
	if err == nil {
		return nil
	}

	failed, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return err
	}

	out := make(errs.FieldErrors, len(failed))
	for i, fe := range failed {
		out[i] = errs.FieldError{Field: fe.Field(), Err: c.message(fe)}
	}

	return out
}

func (c checker) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "datetime":
		return fe.Field() + " must be a date like " + fe.Param()
	}

	return fe.Translate(c.tr)
}
