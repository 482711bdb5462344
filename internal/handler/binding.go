package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mapleship/delivery-api/internal/model"
)

// RegisterValidators wires custom binding tags into gin's validator.
// The fsa tag enforces the letter-digit-letter Forward Sortation Area rule.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("fsa", func(fl validator.FieldLevel) bool {
			return model.IsValidFSA(fl.Field().String())
		})
	}
}
