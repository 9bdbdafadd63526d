package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	calls int
	text  string
	err   error
}

func (s *stubGenerator) Generate(context.Context, string, *Image) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGenerator{err: errors.New("upstream down")}
	b := NewBreaker(stub, 2, time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), "p", nil)
		require.Error(t, err)
	}
	require.Equal(t, "open", b.State())

	_, err := b.Generate(context.Background(), "p", nil)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 2, stub.calls)
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	stub := &stubGenerator{text: "ok"}
	b := NewBreaker(stub, 1, time.Hour, nil)

	text, err := b.Generate(context.Background(), "p", nil)
	require.NoError(t, err)
	require.Equal(t, "ok", text)
	require.Equal(t, "closed", b.State())
}

func TestBreaker_IgnoresCallerCancellation(t *testing.T) {
	stub := &stubGenerator{err: context.Canceled}
	b := NewBreaker(stub, 1, time.Hour, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), "p", nil)
		require.ErrorIs(t, err, context.Canceled)
	}
	require.Equal(t, "closed", b.State())
	require.Equal(t, 3, stub.calls)
}
