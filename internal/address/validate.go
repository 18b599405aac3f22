package address

import (
	"errors"
	"strings"

	"github.com/dukerupert/cepfinder/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fields an address needs before it is stored.
// Failures are returned as a *domain.ValidationError keyed by lowercase field name.
func Validate(addr Address) error {
	err := validate.Struct(addr)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, "address.validate", "failed to validate address")
	}

	var verr error
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		if verr == nil {
			verr = domain.NewValidationError("address.validate", field, fe.Tag())
			continue
		}
		verr = domain.AddFieldError(verr, field, fe.Tag())
	}
	return verr
}
