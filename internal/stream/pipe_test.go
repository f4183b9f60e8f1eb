package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeOrderingPerProducer(t *testing.T) {
	p := New(4)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Answer("1")))
	require.NoError(t, p.Emit(ctx, Answer("2")))
	require.NoError(t, p.Emit(ctx, Answer("3")))

	for _, want := range []string{"1", "2", "3"} {
		got := <-p.Chunks()
		assert.Equal(t, want, got.Content)
	}
}

func TestPipeBackpressureBlocks(t *testing.T) {
	p := New(1)
	ctx := context.Background()

	require.NoError(t, p.Emit(ctx, Answer("1")))

	done := make(chan struct{})
	go func() {
		_ = p.Emit(ctx, Answer("2"))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected second Emit to block while buffer is full")
	case <-time.After(30 * time.Millisecond):
	}

	<-p.Chunks() // drain the first chunk, unblocking the second Emit
	<-done
}

func TestPipeCloseUnblocksEmit(t *testing.T) {
	p := New(1)
	ctx := context.Background()
	require.NoError(t, p.Emit(ctx, Answer("1"))) // fill the buffer

	errCh := make(chan error, 1)
	go func() {
		errCh <- p.Emit(ctx, Answer("2"))
	}()

	p.Close()
	assert.ErrorIs(t, <-errCh, ErrClosed)
	assert.True(t, p.IsClosed())
}

func TestPipeEmitAfterCloseReturnsErrClosed(t *testing.T) {
	p := New(1)
	p.Close()
	assert.ErrorIs(t, p.Emit(context.Background(), Answer("x")), ErrClosed)
}

func TestPipeEmitRespectsContextCancellation(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Emit(context.Background(), Answer("1")))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Emit(ctx, Answer("2")) }()
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
