package library

import (
	"errors"
	"fmt"
)

// LoadFailedMessage is the fixed user-facing text shown instead of the results grid
// when the dataset cannot be loaded.
const LoadFailedMessage = "Could not load prompts. Please refresh the page."

// StartingMessage is shown while the first load is still running.
const StartingMessage = "Prompts are still loading. Please try again shortly."

// ErrNotLoaded is returned by Store.Current before any load attempt has finished.
var ErrNotLoaded = errors.New("prompt library not loaded")

// LoadError reports that the dataset could not be fetched or decoded.
// No partial catalogue is ever produced alongside it.
type LoadError struct {
	Source string
	Status int // HTTP status when the fetch answered non-2xx, 0 otherwise
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load prompt library %s: status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("load prompt library %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// UserMessage maps a store error to the text shown to users. Load failures never
// expose their cause.
func UserMessage(err error) string {
	if errors.Is(err, ErrNotLoaded) {
		return StartingMessage
	}
	return LoadFailedMessage
}
