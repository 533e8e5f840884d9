// Package services defines the business logic of the receptionist backend:
// call routing, call logging, onboarding checkout, number provisioning,
// persona changes, billing events, and support diagnostics.
//
// This file centralizes service-level error values so they can be returned by
// service methods and mapped to HTTP status codes by the handler layer.
package services

import "errors"

var (
	// ErrUserRequired is returned when an operation needs a tenant id and
	// none was supplied.
	ErrUserRequired = errors.New("user id required")

	// ErrUnknownPersona is returned for a persona id with no configured blueprint.
	ErrUnknownPersona = errors.New("unknown persona")

	// ErrProfileNotFound indicates the tenant has not completed checkout.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrLinkNotFound indicates the tenant has no provisioned number yet.
	ErrLinkNotFound = errors.New("no phone number linked")

	// ErrNoNumbersAvailable is returned when the provider has no inventory in
	// the configured country.
	ErrNoNumbersAvailable = errors.New("no numbers available")

	// ErrInvalidPhoneNumber is returned when a lookup number is not in E.164 form.
	ErrInvalidPhoneNumber = errors.New("phone number must be in E.164 format")
)
