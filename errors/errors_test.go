package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrThrottled, "progress event for codegen")
	assert.True(t, Is(err, ErrThrottled))
	assert.False(t, Is(err, ErrRateLimited))
	assert.Contains(t, err.Error(), "progress event for codegen")
}

func TestIsHelpers(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"nil is never throttled", nil, IsThrottledError, false},
		{"throttled sentinel", ErrThrottled, IsThrottledError, true},
		{"wrapped throttled", Wrap(ErrThrottled, "ctx"), IsThrottledError, true},
		{"rate limited sentinel", ErrRateLimited, IsRateLimitedError, true},
		{"not found sentinel", ErrNotFound, IsNotFoundError, true},
		{"plain error is not a sentinel", New("boom"), IsNotFoundError, false},
		{"invalid request", NewInvalidRequestError("bad %s", "field"), IsInvalidRequestError, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.check(tc.err))
		})
	}
}

func TestDetailsSurviveWrapping(t *testing.T) {
	err := WithDetail(Wrap(ErrRateLimited, "origin 10.0.0.1"), "retry after 350ms")
	require.Error(t, err)

	details := GetAllDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "retry after 350ms", details[0])
	assert.True(t, Is(err, ErrRateLimited))
}

func TestNewNotFoundErrorFormats(t *testing.T) {
	err := NewNotFoundError("agent %q", "review")
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), `agent "review"`)
}
