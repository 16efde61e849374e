package engine

import "errors"

// SetupError is the only error class surfaced to the caller as a hard
// failure. Everything else the engine absorbs into a deterministic
// continuation plus a recorded event.
type SetupError struct {
	Reason string
}

func (e *SetupError) Error() string {
	return "game setup: " + e.Reason
}

// IsSetupError reports whether err is (or wraps) a SetupError.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// ErrDeckExhausted is returned by Deck.Draw only when the discard pile is
// empty too. With conserved card counts this should never fire in play.
var ErrDeckExhausted = errors.New("deck and discard both exhausted")
