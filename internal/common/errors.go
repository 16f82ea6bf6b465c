// Package common defines shared constants and sentinel errors used across
// the server, the transport and the REPL client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Validation errors: empty labels, too-short search queries.
	ErrValidation = errors.New("validation error")

	// ErrNotFoundOrNotOwned deliberately does not distinguish a missing node
	// from a node that belongs to somebody else.
	ErrNotFoundOrNotOwned = errors.New("node not found or not owned")

	// ErrCorruptPath is returned when an ancestor walk exceeds the depth cap.
	ErrCorruptPath = errors.New("corrupt path")

	// ErrStoreUnavailable wraps any failure of the backing database.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAttachmentDelivery is returned when a media reference cannot be
	// turned into something the transport can fetch.
	ErrAttachmentDelivery = errors.New("attachment delivery failure")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"
