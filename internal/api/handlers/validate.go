package handlers

import (
	"github.com/go-playground/validator/v10"
)

// validate is the shared request validator. Handlers declare constraints as
// struct tags on their request types.
var validate = validator.New()
