package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrNotFound, "mod not found")
	assert.Equal(t, ErrNotFound, err.Code)
	assert.Equal(t, "mod not found", err.Message)
	assert.Equal(t, "[NOT_FOUND] mod not found", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCorruptArchive, "bad entry: %s", "../escape")
	assert.Equal(t, ErrCorruptArchive, err.Code)
	assert.Equal(t, "[CORRUPT_ARCHIVE] bad entry: ../escape", err.Error())
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("disk full")
	err := Wrap(inner, ErrFileWrite, "failed to write overlay")

	require.NotNil(t, err)
	assert.Equal(t, ErrFileWrite, err.Code)
	assert.Equal(t, inner, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrFileWrite, "nothing"))
	assert.Nil(t, Wrapf(nil, ErrFileWrite, "nothing %d", 1))
}

func TestIs(t *testing.T) {
	err := New(ErrBackupMissing, "no backup for path")
	target := New(ErrBackupMissing, "different message")

	assert.True(t, errors.Is(err, target))
	assert.False(t, errors.Is(err, New(ErrNotFound, "other code")))
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "matching code",
			err:  New(ErrPartialApplyFailure, "apply failed"),
			code: ErrPartialApplyFailure,
			want: true,
		},
		{
			name: "wrapped matching code",
			err:  fmt.Errorf("outer: %w", New(ErrUnrecoverableState, "rollback failed")),
			code: ErrUnrecoverableState,
			want: true,
		},
		{
			name: "different code",
			err:  New(ErrNotFound, "missing"),
			code: ErrInUse,
			want: false,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("plain"),
			code: ErrNotFound,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsErrorCode(tt.err, tt.code))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrDanglingModReference, GetErrorCode(New(ErrDanglingModReference, "x")))
	assert.Equal(t, ErrUnknown, GetErrorCode(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrPartialApplyFailure, "apply failed").
		WithDetail("paths", []string{"car/livery.dat"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{"car/livery.dat"}, details["paths"])
}
