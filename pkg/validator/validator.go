package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/bloodlink/blood-api/internal/model"
)

// RegisterCustomValidations wires domain validations into gin's binding
// engine. `bloodgroup` accepts exactly the eight ABO/Rh types.
func RegisterCustomValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
		return model.BloodGroup(fl.Field().String()).Valid()
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return model.Role(fl.Field().String()).Valid()
	})
}
