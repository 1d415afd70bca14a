package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structOnce     sync.Once
	structValidate *validator.Validate
)

func instance() *validator.Validate {
	structOnce.Do(func() {
		structValidate = validator.New(validator.WithRequiredStructEnabled())
		_ = structValidate.RegisterValidation("diskname", func(fl validator.FieldLevel) bool {
			return ValidateDiskName(fl.Field().String())
		})
	})
	return structValidate
}

// Struct validates v against its `validate` tags. The "diskname" tag checks
// names with ValidateDiskName.
func Struct(v any) error {
	return instance().Struct(v)
}
