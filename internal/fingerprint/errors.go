package fingerprint

import "errors"

// Sentinel errors returned by [Engine.Compute]. Both are fatal to the
// affected document only; a reconciliation pass reports them in its summary
// and keeps going.
var (
	// ErrContentTooLarge is returned when content exceeds the configured
	// size ceiling. Oversized content is reported, never truncated.
	ErrContentTooLarge = errors.New("content exceeds fingerprint size ceiling")

	// ErrInvalidEncoding is returned when content is not valid UTF-8.
	// Documents are text; undecodable bytes cannot be segmented or merged.
	ErrInvalidEncoding = errors.New("content is not valid utf-8")
)
