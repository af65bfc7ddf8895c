package handler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// oneOf validates that the field is one of the space separated values of the tag parameter,
// like `oneOf=createdBy templatePrefix to`.
func oneOf(fl validator.FieldLevel) bool {
	values := strings.Split(fl.Param(), " ")
	return slices.Contains(values, fl.Field().String())
}

// RegisterValidation adds the custom validators binding tags refer to. gin only exposes its
// validator engine through a type assertion.
func RegisterValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("failed to get validation engine")
	}
	return v.RegisterValidation("oneOf", oneOf)
}
