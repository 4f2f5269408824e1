// internal/browser/session/context_utils_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type ctxKey string

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("values come from the tab context", func(t *testing.T) {
		tab := context.WithValue(context.Background(), ctxKey("target"), "tab-1")
		op := context.WithValue(context.Background(), ctxKey("target"), "ignored")

		combined, cancel := CombineContext(tab, op)
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(ctxKey("target")))
		assert.NoError(t, combined.Err())
	})

	t.Run("tab closing cancels the operation", func(t *testing.T) {
		tab, closeTab := context.WithCancel(context.Background())
		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		closeTab()
		assert.Eventually(t, func() bool { return combined.Err() != nil }, time.Second, 5*time.Millisecond)
	})

	t.Run("operation deadline cancels the combined context", func(t *testing.T) {
		op, cancelOp := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancelOp()
		combined, cancel := CombineContext(context.Background(), op)
		defer cancel()

		select {
		case <-combined.Done():
			assert.ErrorIs(t, combined.Err(), context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("combined context outlived the operation deadline")
		}
	})
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey("k"), "v"), time.Millisecond)
	cancel()

	detached := Detach(parent)
	assert.Equal(t, "v", detached.Value(ctxKey("k")))
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, hasDeadline := detached.Deadline()
	assert.False(t, hasDeadline)
}
