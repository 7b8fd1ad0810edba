package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"medication-refill-tracker/internal/utils"
)

// v is the package-level singleton; custom tags are registered in init
// before the first call to Struct.
var v = validator.New()

var customTags = map[string]validator.Func{
	"hhmm": func(fl validator.FieldLevel) bool {
		return utils.IsClock(fl.Field().String())
	},
}

func init() {
	if err := register(v, customTags); err != nil {
		panic(err)
	}
}

func register(v *validator.Validate, tags map[string]validator.Func) error {
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}

// Struct validates s by its validate tags and flattens the failures into one error.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
