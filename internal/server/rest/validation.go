package rest

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/iudp/ledger/internal/server/slots"
)

// registerValidators adds the "timeslot" tag backed by the slot catalog.
func registerValidators(catalog slots.Catalog) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return catalog.Has(fl.Field().String())
	})
}
