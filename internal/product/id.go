package product

import (
	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/google/uuid"
)

// ValidateID rejects ids that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.InvalidIdentifier(id)
	}
	return nil
}
