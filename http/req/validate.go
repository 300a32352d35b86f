package req

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	v10 "github.com/go-playground/validator/v10"
	"github.com/xy-planning-network/trailhead"
	"github.com/xy-planning-network/trailhead/http/responses"
)

// rules are the validate tags a Parser understands beyond those built into v10.
//
//	enum      the field is a trailhead.Enumerable, or a non-empty slice of them, reporting Valid
//	response  the field is a string, or a non-empty slice of them, usable as a response name
var rules = map[string]v10.Func{
	"enum":     eachValue(validEnumerable),
	"response": eachValue(validResponseName),
}

type validator struct {
	valid *v10.Validate
}

func newValidator() validator {
	v := v10.New()
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("trailhead/http/req: registering %q rule: %s", tag, err))
		}
	}
	v.RegisterTagNameFunc(fieldName)

	return validator{v}
}

// fieldName names a field as clients know it: by its json tag, else its schema tag.
// Fields neither names fall back to their Go name.
func fieldName(field reflect.StructField) string {
	for _, key := range []string{"json", "schema"} {
		name, _, _ := strings.Cut(field.Tag.Get(key), ",")
		if name != "" && name != "-" {
			return name
		}
	}

	return ""
}

// validate checks structPtr against its "validate" struct tags,
// returning every failure as ValidationErrors.
func (v validator) validate(structPtr any) error {
	err := v.valid.Struct(structPtr)
	if err == nil {
		return nil
	}

	var fes v10.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}

	verrs := make(ValidationErrors, 0, len(fes))
	for _, fe := range fes {
		verrs = append(verrs, fromFieldError(fe))
	}

	return verrs
}

// fromFieldError reports fe by the field's path below the top-level struct
// and a rule reading like the tag that failed, followed by the field's type:
//
//	gt=0; int64
func fromFieldError(fe v10.FieldError) ValidationError {
	field := fe.Namespace()
	if _, below, ok := strings.Cut(field, "."); ok {
		field = below
	}

	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}

	return ValidationError{
		Field: field,
		Got:   fe.Value(),
		Rule:  fmt.Sprintf("%s; %s", rule, fe.Type()),
	}
}

// eachValue applies check to the field, or to every element of a slice field.
// An empty slice fails.
func eachValue(check func(reflect.Value) bool) v10.Func {
	return func(fl v10.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
			return check(field)
		}

		if field.Len() == 0 {
			return false
		}

		for i := 0; i < field.Len(); i++ {
			if !check(field.Index(i)) {
				return false
			}
		}

		return true
	}
}

func validEnumerable(val reflect.Value) bool {
	if !val.IsValid() || !val.CanInterface() {
		return false
	}

	enum, ok := val.Interface().(trailhead.Enumerable)
	return ok && enum != nil && enum.Valid() == nil
}

func validResponseName(val reflect.Value) bool {
	return val.Kind() == reflect.String && responses.ValidName(val.String())
}
