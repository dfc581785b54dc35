package resilient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/jobsift/ai/mock"
	"github.com/poiesic/jobsift/core"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_RequiresEmbedder(t *testing.T) {
	_, err := Wrap(nil)
	assert.Equal(t, ErrEmbedderRequired, err)
}

func TestWrap_InvalidOptions(t *testing.T) {
	_, err := Wrap(mock.NewMockEmbedder(), WithTimeout(-time.Second))
	assert.Error(t, err)

	_, err = Wrap(mock.NewMockEmbedder(), WithBreaker("x", -1, time.Second))
	assert.Error(t, err)
}

func TestEmbedder_PassesThrough(t *testing.T) {
	inner := mock.NewMockEmbedder()
	e, err := Wrap(inner, WithTimeout(time.Second))
	require.NoError(t, err)

	ctx := context.Background()
	v, err := e.EmbedText(ctx, "go engineer")
	require.NoError(t, err)
	assert.Len(t, v, 384)

	vs, err := e.EmbedTexts(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vs, 2)
	assert.Equal(t, 1, inner.BatchCalls())
}

func TestEmbedder_Timeout(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	e, err := Wrap(inner, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = e.EmbedText(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEmbedder_WrapsProviderErrors(t *testing.T) {
	boom := errors.New("connection refused")
	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, boom
	}

	e, err := Wrap(inner)
	require.NoError(t, err)

	_, err = e.EmbedTexts(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
	assert.ErrorIs(t, err, boom)
}

func TestEmbedder_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("unavailable")
	}

	wrapped, err := newEmbedder(inner, WithBreaker("test", 3, time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "closed", wrapped.State())

	ctx := context.Background()
	for range 3 {
		_, err := wrapped.EmbedText(ctx, "q")
		require.Error(t, err)
	}
	assert.Equal(t, "open", wrapped.State())
	assert.Equal(t, 3, inner.SingleCalls())

	// Open breaker fails fast without reaching the provider
	_, err = wrapped.EmbedText(ctx, "q")
	assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, inner.SingleCalls())
}

func TestEmbedder_CallerCancellationDoesNotTrip(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, ctx.Err()
	}

	wrapped, err := newEmbedder(inner, WithBreaker("test", 1, time.Minute))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = wrapped.EmbedText(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "closed", wrapped.State())
}

func TestEmbedder_CallerDeadlineDoesNotTrip(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	wrapped, err := newEmbedder(inner, WithTimeout(time.Minute), WithBreaker("test", 1, time.Minute))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = wrapped.EmbedText(ctx, "q")
	assert.ErrorIs(t, err, core.ErrEmbeddingProvider)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "closed", wrapped.State())
}

func TestEmbedder_BreakerDisabled(t *testing.T) {
	wrapped, err := newEmbedder(mock.NewMockEmbedder())
	require.NoError(t, err)
	assert.Equal(t, "disabled", wrapped.State())
}
