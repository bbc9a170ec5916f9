package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/inkbook/studio/internal/domain/entities"
)

// New returns a validator with the agenda's custom tags registered:
// notblank, slottime and palettecolor.
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("slottime", func(fl validator.FieldLevel) bool {
		return entities.IsSlotTime(fl.Field().String())
	})
	_ = v.RegisterValidation("palettecolor", func(fl validator.FieldLevel) bool {
		return entities.IsPaletteColor(fl.Field().String())
	})
	return v
}

// Struct validates s and wraps failures in entities.ErrValidation.
func Struct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", entities.ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", entities.ErrValidation, err)
}
