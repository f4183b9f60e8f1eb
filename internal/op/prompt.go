package op

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PromptSet loads a prompt file once per Op lifetime from a sibling
// file named by substituting the Op's file suffix with "_prompt.yaml",
// and renders named templates with {var} substitution and locale
// fallback.
type PromptSet struct {
	once      sync.Once
	templates map[string]string
	loadErr   error
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// promptPath derives the prompt file path from the Op's declared
// FilePath: "*_op.yaml" becomes "*_prompt.yaml" in the same directory;
// any other name gets "_prompt.yaml" appended after stripping its
// extension.
func promptPath(filePath string) string {
	dir := filepath.Dir(filePath)
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stem = strings.TrimSuffix(stem, "_op")
	return filepath.Join(dir, stem+"_prompt.yaml")
}

func (p *PromptSet) load(filePath string) {
	p.once.Do(func() {
		data, err := os.ReadFile(promptPath(filePath))
		if err != nil {
			p.loadErr = fmt.Errorf("op: loading prompt file for %s: %w", filePath, err)
			return
		}
		m := make(map[string]string)
		if err := yaml.Unmarshal(data, &m); err != nil {
			p.loadErr = fmt.Errorf("op: parsing prompt file for %s: %w", filePath, err)
			return
		}
		p.templates = m
	})
}

// Format loads (once) and renders the named template against vars,
// preferring "{name}_{language}" over "{name}" when the localized
// variant exists.
func (p *PromptSet) Format(filePath, name, language string, vars map[string]any) (string, error) {
	p.load(filePath)
	if p.loadErr != nil {
		return "", p.loadErr
	}
	key := name
	if language != "" {
		if _, ok := p.templates[name+"_"+language]; ok {
			key = name + "_" + language
		}
	}
	tmpl, ok := p.templates[key]
	if !ok {
		return "", fmt.Errorf("op: prompt %q not found in %s", name, promptPath(filePath))
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		varName := match[1 : len(match)-1]
		if v, ok := vars[varName]; ok {
			return fmt.Sprintf("%v", v)
		}
		return match
	}), nil
}
