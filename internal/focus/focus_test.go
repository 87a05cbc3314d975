package focus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreErrorUnwraps(t *testing.T) {
	err := error(&RestoreError{Handle: Handle{ID: 0x2a, Title: "Notepad"}, Err: ErrWindowGone})

	assert.ErrorIs(t, err, ErrWindowGone)
	var re *RestoreError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Notepad", re.Handle.Title)
	assert.Contains(t, err.Error(), "Notepad")
	assert.Contains(t, err.Error(), "0x2a")
}

func TestRestoreZeroHandle(t *testing.T) {
	err := New().Restore(Handle{})

	var re *RestoreError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, ErrNoWindow)
	assert.True(t, re.Handle.IsZero())
}
