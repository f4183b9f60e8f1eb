package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigAppliesSpecDefaults(t *testing.T) {
	c := NewConfig("echo")
	assert.True(t, c.Async)
	assert.Equal(t, 1, c.MaxRetries)
	assert.True(t, c.RaiseOnFailure)
	assert.True(t, c.SaveAnswer)
}

func TestConfigValidateRejectsMissingName(t *testing.T) {
	c := Config{MaxRetries: 1}
	assert.Error(t, c.Validate())
}

func TestConfigValidateRejectsZeroMaxRetries(t *testing.T) {
	c := NewConfig("echo")
	c.MaxRetries = 0
	assert.Error(t, c.Validate())
}

func TestConfigValidatePasses(t *testing.T) {
	c := NewConfig("echo")
	require.NoError(t, c.Validate())
}

func TestConfigCloneDeepCopiesChildren(t *testing.T) {
	child := newCountingOp("child", true)
	c := NewConfig("parent")
	c.Children = map[string]Op{"a": child}

	clone := c.clone()
	clone.Children["a"].(*countingOp).calls = 5
	assert.NotEqual(t, child.calls, clone.Children["a"].(*countingOp).calls)
}
