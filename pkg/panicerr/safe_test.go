package panicerr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafe(t *testing.T) {
	sentinel := errors.New("plain")
	assert.ErrorIs(t, Safe(func() error { return sentinel })(), sentinel)
	assert.NoError(t, Safe(func() error { return nil })())

	err := SafeContext(func(context.Context) error { panic("boom") })(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestCall(t *testing.T) {
	got, err := Call(func() (string, error) { return "ok", nil })
	assert.NoError(t, err)
	assert.Equal(t, "ok", got)

	got, err = Call(func() (string, error) { panic("invoker crashed") })
	assert.ErrorContains(t, err, "invoker crashed")
	assert.Empty(t, got)
}
