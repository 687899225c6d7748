package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingWriter struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (w *recordingWriter) WriteText(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.texts = append(w.texts, text)
	return nil
}

func TestCopySuccessRevertsToIdle(t *testing.T) {
	w := &recordingWriter{}
	c := NewCopier(w, WithRevertAfter(20*time.Millisecond))
	defer c.Close()

	require.NoError(t, c.Copy(context.Background(), "p1", "Write an intro email."))
	assert.Equal(t, []string{"Write an intro email."}, w.texts)
	assert.Equal(t, Status{Label: CopiedLabel, Message: CopiedLabel}, c.Status("p1"))

	assert.Eventually(t, func() bool {
		return c.Status("p1") == Idle
	}, time.Second, 5*time.Millisecond)
}

func TestCopyFailureIsPersistentAndLocal(t *testing.T) {
	boom := errors.New("no display")
	failing := &recordingWriter{err: boom}
	c := NewCopier(failing, WithRevertAfter(10*time.Millisecond))
	defer c.Close()

	err := c.Copy(context.Background(), "p1", "text")
	require.Error(t, err)

	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, "p1", we.PromptID)
	assert.ErrorIs(t, err, boom)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, Status{Label: CopyLabel, Message: FailedStatus}, c.Status("p1"))
	assert.Equal(t, Idle, c.Status("p2"))
}

func TestCopyFailureCancelsPendingRevert(t *testing.T) {
	w := &recordingWriter{}
	c := NewCopier(w, WithRevertAfter(20*time.Millisecond))
	defer c.Close()

	require.NoError(t, c.Copy(context.Background(), "p1", "text"))

	w.mu.Lock()
	w.err = errors.New("denied")
	w.mu.Unlock()
	require.Error(t, c.Copy(context.Background(), "p1", "text"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, FailedStatus, c.Status("p1").Message)
}

func TestCopyCancelledContext(t *testing.T) {
	w := &recordingWriter{}
	c := NewCopier(w)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Copy(ctx, "p1", "text")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.texts)
}

func TestOnChangeCallback(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []Status
	)
	c := NewCopier(WriterFunc(func(string) error { return nil }),
		WithRevertAfter(10*time.Millisecond),
		WithOnChange(func(id string, st Status) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, st)
		}),
	)
	defer c.Close()

	require.NoError(t, c.Copy(context.Background(), "p1", "x"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, CopiedLabel, seen[0].Label)
	assert.Equal(t, Idle, seen[1])
}

func TestCloseStopsTimers(t *testing.T) {
	c := NewCopier(WriterFunc(func(string) error { return nil }), WithRevertAfter(time.Hour))
	require.NoError(t, c.Copy(context.Background(), "p1", "x"))
	c.Close()
	assert.Equal(t, CopiedLabel, c.Status("p1").Label)
}
