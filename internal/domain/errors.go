package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors the HTTP and lifecycle layers branch on. Wrap with
// fmt.Errorf("...: %w", ErrX) to attach context while keeping errors.Is
// working.
var (
	// ErrValidation marks a domain validation failure (spec §7 taxonomy 4):
	// price non-monotonicity, missing required field, non-singleton
	// singleton. Callers aggregate these rather than returning on first hit.
	ErrValidation = errors.New("domain: validation failed")

	// ErrNotFound marks a missing entity (unknown refresh token, unknown
	// chat room, unknown copy setup token).
	ErrNotFound = errors.New("domain: not found")

	// ErrUnauthorized marks an unknown CopySetup token (spec §4.5: 401).
	ErrUnauthorized = errors.New("domain: unauthorized")

	// ErrConflict marks a persistence-layer uniqueness violation, e.g. a
	// duplicate (chat_room_id, external_message_id) race (spec §5
	// ordering guarantees: "the repository's unique constraint ...
	// plus idempotent upserts is the sole defense against duplicate
	// Messages").
	ErrConflict = errors.New("domain: conflict")
)

// errValidationf wraps ErrValidation with a formatted message.
func errValidationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
