package flowcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMergeAndGet(t *testing.T) {
	c := New(context.Background(), time.Time{})
	c.Merge(map[string]any{"n": 0, "text": "hi"})

	v, ok := c.Get("n")
	require.True(t, ok)
	assert.Equal(t, 0, v)

	typed, ok := GetTyped[string](c, "text")
	require.True(t, ok)
	assert.Equal(t, "hi", typed)

	_, ok = GetTyped[int](c, "text")
	assert.False(t, ok, "type mismatch should fail rather than panic")
}

func TestContextCancelPropagates(t *testing.T) {
	c := New(context.Background(), time.Time{})
	c.EnableStream(1)

	c.Cancel()

	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done() to be closed after Cancel")
	}
	assert.True(t, c.Stream.IsClosed())
}

func TestContextDeadlineExpires(t *testing.T) {
	c := New(context.Background(), time.Now().Add(10*time.Millisecond))
	<-c.Done()
	assert.ErrorIs(t, c.Err(), context.DeadlineExceeded)
}

func TestResponseToMapIncludesExtensibleFields(t *testing.T) {
	r := NewResponse()
	r.SetAnswer("hello")
	r.SetField("n", 3)

	m := r.ToMap()
	assert.Equal(t, "hello", m["answer"])
	assert.Equal(t, 3, m["n"])
	assert.Equal(t, []Message{}, m["messages"])
}
