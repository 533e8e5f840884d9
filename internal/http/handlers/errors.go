// Package handlers defines the HTTP error codes returned in ErrorResponse.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics; the rest name
// the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "no_numbers_available",
//	  "message": "No UK numbers available right now."
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeUnknownPersona     = "unknown_persona"
	ErrCodeRecordFailed       = "record_failed"
	ErrCodeWebhookInvalid     = "webhook_invalid"
	ErrCodeCheckoutFailed     = "checkout_failed"
	ErrCodeDatabase           = "database_error"
	ErrCodeNoNumbers          = "no_numbers_available"
	ErrCodeProvisioningFailed = "provisioning_failed"
	ErrCodeNoLinkedNumber     = "no_linked_number"
	ErrCodePersonaFailed      = "persona_update_failed"
	ErrCodeListFailed         = "list_failed"
	ErrCodeSearchFailed       = "search_failed"
)
