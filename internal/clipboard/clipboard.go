// Package clipboard copies prompt templates and tracks the per-card copy feedback.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sysclip "github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// Card feedback texts.
const (
	CopyLabel    = "Copy Prompt"
	CopiedLabel  = "Copied"
	FailedStatus = "Copy failed"
)

// RevertAfter is how long the "Copied" feedback stays before the card returns to normal.
const RevertAfter = 1200 * time.Millisecond

// ErrUnsupported is returned by SystemWriter when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard not supported on this system")

// Writer writes text to a clipboard.
type Writer interface {
	WriteText(text string) error
}

// SystemWriter writes to the OS clipboard.
type SystemWriter struct{}

// WriteText implements Writer.
func (SystemWriter) WriteText(text string) error {
	if sysclip.Unsupported {
		return ErrUnsupported
	}
	return sysclip.WriteAll(text)
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(text string) error

// WriteText implements Writer.
func (f WriterFunc) WriteText(text string) error { return f(text) }

// WriteError reports a failed copy of one card. It affects only that card.
type WriteError struct {
	PromptID string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("copy prompt %s: %v", e.PromptID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Status is the feedback shown on a card.
type Status struct {
	Label   string `json:"label"`
	Message string `json:"message,omitempty"`
}

// Idle is the status of a card that was never copied or whose feedback reverted.
var Idle = Status{Label: CopyLabel}

// Copier writes templates to the clipboard and keeps each card's feedback. Copies are
// independent: a failure on one card never changes another card's status.
type Copier struct {
	writer      Writer
	revertAfter time.Duration
	onChange    func(promptID string, st Status)

	mu       sync.Mutex
	statuses map[string]Status
	timers   map[string]*time.Timer
	closed   bool
}

// Option configures a Copier.
type Option func(*Copier)

// WithRevertAfter overrides RevertAfter.
func WithRevertAfter(d time.Duration) Option {
	return func(c *Copier) { c.revertAfter = d }
}

// WithOnChange registers a callback invoked after every status change.
func WithOnChange(fn func(promptID string, st Status)) Option {
	return func(c *Copier) { c.onChange = fn }
}

// NewCopier creates a Copier writing through w.
func NewCopier(w Writer, opts ...Option) *Copier {
	c := &Copier{
		writer:      w,
		revertAfter: RevertAfter,
		statuses:    make(map[string]Status),
		timers:      make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy writes text for the given card. The text must be exactly what the card displays.
func (c *Copier) Copy(ctx context.Context, promptID, text string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{PromptID: promptID, Err: err}
	}

	if err := c.writer.WriteText(text); err != nil {
		log.Warn().Err(err).Str("promptId", promptID).Msg("Clipboard write failed")
		c.set(promptID, Status{Label: CopyLabel, Message: FailedStatus}, false)
		return &WriteError{PromptID: promptID, Err: err}
	}

	c.set(promptID, Status{Label: CopiedLabel, Message: CopiedLabel}, true)
	return nil
}

// Status returns the current feedback for a card.
func (c *Copier) Status(promptID string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.statuses[promptID]; ok {
		return st
	}
	return Idle
}

// Close stops pending revert timers.
func (c *Copier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}

func (c *Copier) set(promptID string, st Status, revert bool) {
	c.mu.Lock()
	if t, ok := c.timers[promptID]; ok {
		t.Stop()
		delete(c.timers, promptID)
	}
	c.statuses[promptID] = st

	if revert && !c.closed {
		var timer *time.Timer
		timer = time.AfterFunc(c.revertAfter, func() {
			c.mu.Lock()
			// a newer copy replaced this timer
			if c.timers[promptID] != timer {
				c.mu.Unlock()
				return
			}
			delete(c.timers, promptID)
			delete(c.statuses, promptID)
			c.mu.Unlock()
			c.notify(promptID, Idle)
		})
		c.timers[promptID] = timer
	}
	c.mu.Unlock()

	c.notify(promptID, st)
}

func (c *Copier) notify(promptID string, st Status) {
	if c.onChange != nil {
		c.onChange(promptID, st)
	}
}
