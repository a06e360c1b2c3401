package auth

import (
	"fmt"

	"outmentor/domain"
	"outmentor/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateProfile checks field bounds, then the kind/details invariant.
func ValidateProfile(p domain.Profile) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	if team, ok := p.Team(); ok {
		if err := validate.Struct(team); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
		}
	}
	return p.CheckVariant()
}
