package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPanicsWithPrecondition(t *testing.T) {
	err := Catch(func() {
		Check(1+1 == 3, "index %d out of place", 2)
	})
	require.Error(t, err)

	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, "index 2 out of place", pre.Message)
	assert.NotEmpty(t, pre.Stack)
	assert.True(t, IsInternal(err))
	assert.False(t, IsUnsupported(err))
}

func TestCheckPassing(t *testing.T) {
	require.NoError(t, Catch(func() { Check(true, "never") }))
}

func TestUnsupportedIsDistinct(t *testing.T) {
	err := Catch(func() { panic(Unsupported("substitute", "type parameters")) })
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.False(t, IsInternal(err))
	assert.Equal(t, "unsupported operation: substitute: type parameters", err.Error())

	wrapped := fmt.Errorf("copy: %w", err)
	assert.True(t, IsUnsupported(wrapped))
}

func TestCatchRethrowsForeignPanics(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		_ = Catch(func() { panic("boom") })
	})
}
