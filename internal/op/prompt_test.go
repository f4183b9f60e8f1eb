package op

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePromptFile(t *testing.T, dir string, content string) string {
	t.Helper()
	opPath := filepath.Join(dir, "greet_op.yaml")
	promptPath := filepath.Join(dir, "greet_prompt.yaml")
	require.NoError(t, os.WriteFile(promptPath, []byte(content), 0o644))
	return opPath
}

func TestPromptSetFormatsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	opPath := writePromptFile(t, dir, "greeting: \"hello {name}\"\n")

	p := &PromptSet{}
	out, err := p.Format(opPath, "greeting", "", map[string]any{"name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestPromptSetPrefersLocalizedVariant(t *testing.T) {
	dir := t.TempDir()
	opPath := writePromptFile(t, dir, "greeting: \"hello\"\ngreeting_zh: \"你好\"\n")

	p := &PromptSet{}
	out, err := p.Format(opPath, "greeting", "zh", nil)
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
}

func TestPromptSetLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	opPath := writePromptFile(t, dir, "greeting: \"hi\"\n")

	p := &PromptSet{}
	_, err := p.Format(opPath, "greeting", "", nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "greet_prompt.yaml")))
	// Second call must still succeed since templates were cached by
	// sync.Once on the first load.
	_, err = p.Format(opPath, "greeting", "", nil)
	require.NoError(t, err)
}

func TestPromptSetMissingNameErrors(t *testing.T) {
	dir := t.TempDir()
	opPath := writePromptFile(t, dir, "greeting: \"hi\"\n")

	p := &PromptSet{}
	_, err := p.Format(opPath, "missing", "", nil)
	assert.Error(t, err)
}
