package shape

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		mustRegister(v, "ident", func(fl validator.FieldLevel) bool {
			return IsIdent(fl.Field().String())
		})
		mustRegister(v, "qualified", func(fl validator.FieldLevel) bool {
			for _, part := range strings.Split(fl.Field().String(), ".") {
				if !IsIdent(part) {
					return false
				}
			}
			return true
		})
		mustRegister(v, "typeref", func(fl validator.FieldLevel) bool {
			_, err := ParseTypeRef(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("register %s: %w", tag, err))
	}
}

// ValidationError lists every problem found in one file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid shape file %s: %s", displayPath(e.Path), strings.Join(e.Problems, "; "))
}

// Validate checks field constraints and the structural rules the tags
// cannot express.
func Validate(f *File) error {
	var problems []string
	if err := validatorInstance().Struct(f); err != nil {
		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			return fmt.Errorf("validate %s: %w", displayPath(f.Path), err)
		}
		for _, ve := range valErrs {
			problems = append(problems, ve.Namespace()+": "+formatValidationError(ve))
		}
	}
	for i := range f.Classes {
		problems = append(problems, f.Classes[i].check("classes["+fmt.Sprint(i)+"]")...)
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Path: f.Path, Problems: problems}
}

func (c *Class) check(at string) []string {
	var problems []string
	if len(c.Entries) > 0 && c.Kind != "enum" {
		problems = append(problems, at+": only enum classes have entries")
	}
	if c.Modality == "sealed" && c.Kind != "" && c.Kind != "class" && c.Kind != "interface" {
		problems = append(problems, at+": only classes and interfaces can be sealed")
	}
	if c.Kind == "interface" && (c.Constructor != nil || len(c.Constructors) > 0) {
		problems = append(problems, at+": interfaces have no constructors")
	}
	seen := make(map[string]bool)
	for _, tp := range c.TypeParameters {
		if seen[tp.Name] {
			problems = append(problems, at+": duplicate type parameter "+tp.Name)
		}
		seen[tp.Name] = true
	}
	for i := range c.Nested {
		problems = append(problems, c.Nested[i].check(at+".nested["+fmt.Sprint(i)+"]")...)
	}
	if c.Companion != nil {
		if c.Companion.Kind != "" && c.Companion.Kind != "object" {
			problems = append(problems, at+".companion: a companion must be an object")
		}
		problems = append(problems, c.Companion.check(at+".companion")...)
	}
	return problems
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "ident":
		return fmt.Sprintf("%q is not a valid name", ve.Value())
	case "qualified":
		return fmt.Sprintf("%q is not a valid qualified name", ve.Value())
	case "typeref":
		if _, err := ParseTypeRef(fmt.Sprint(ve.Value())); err != nil {
			return err.Error()
		}
		return "invalid type reference"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
