package service

import (
	"github.com/google/uuid"

	domainErrors "github.com/rivon0507/courier-back/internal/domain/errors"
)

// DeviceIdentity parses the opaque per-browser device identifier carried in
// the device_id cookie. The two entry points differ on purpose: login and
// registration replace a corrupted cookie silently, while refresh treats a
// malformed one as a hard failure because device identity feeds reuse
// detection there.
type DeviceIdentity struct{}

// Ensure returns the parsed device id, or mints a fresh one when the cookie is
// absent or unparseable. Never fails.
func (DeviceIdentity) Ensure(cookieValue string) uuid.UUID {
	if cookieValue == "" {
		return uuid.New()
	}
	id, err := uuid.Parse(cookieValue)
	if err != nil {
		return uuid.New()
	}
	return id
}

// ParseStrict returns ErrInvalidDeviceID when the cookie is absent or
// unparseable.
func (DeviceIdentity) ParseStrict(cookieValue string) (uuid.UUID, error) {
	id, err := uuid.Parse(cookieValue)
	if err != nil {
		return uuid.Nil, domainErrors.ErrInvalidDeviceID
	}
	return id, nil
}
