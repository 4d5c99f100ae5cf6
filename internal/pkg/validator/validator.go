package validator

import (
	"github.com/go-playground/validator/v10"
)

// Shared instance: validator caches struct metadata, so one instance serves
// the whole process.
var validate = validator.New()

// Get returns the shared validator instance
func Get() *validator.Validate {
	return validate
}
