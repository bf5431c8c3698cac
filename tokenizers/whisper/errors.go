package whisper

import "github.com/pkg/errors"

// Errors returned by the package are always wrapped with the details of the failure.
// Use errors.Is to check for them.
var (
	// ErrInvalidConfiguration is returned by New for unsupported tasks or languages, or a vocabulary
	// missing one of the control tokens.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrOutOfRange is returned for times outside of [0, 30] seconds, or token ids that are not timestamps.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidInput is returned by Encode for inputs that are neither a string nor a []Word.
	ErrInvalidInput = errors.New("invalid input")
)
