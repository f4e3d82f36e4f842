// internal/transmute/errors.go
package transmute

import "errors"

var (
	// ErrTransmutationFailed is the only error Transmute returns. The cause is
	// kept in the message.
	ErrTransmutationFailed = errors.New("TRANSMUTATION_FAILED")

	ErrGenerationFailed = errors.New("GENERATION_FAILED")
	ErrInvalidJSON      = errors.New("INVALID_JSON")
)
