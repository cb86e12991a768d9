// Package msgcat renders player-facing strings from a YAML catalog.
package msgcat

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded embed.FS

const embeddedFile = "messages.en.yaml"

// Catalog holds parsed templates keyed by dotted path ("gameover.win").
// It is read-only once built.
type Catalog struct {
	text map[string]string
	tpl  map[string]*template.Template
}

// New loads the embedded messages, then every *.yaml/*.yml file in overrideDir
// (if set) on top. A key defined by two override files is an error.
func New(overrideDir string) (*Catalog, error) {
	raw, err := embedded.ReadFile(embeddedFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	entries, err := flatten(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embedded messages: %w", err)
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		over, err := loadOverrides(dir)
		if err != nil {
			return nil, err
		}
		for k, v := range over {
			entries[k] = v
		}
	}

	c := &Catalog{text: entries, tpl: make(map[string]*template.Template, len(entries))}
	for k, v := range entries {
		t, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", k, err)
		}
		c.tpl[k] = t
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog, loaded once and shared.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New("")
		if err != nil {
			panic(fmt.Sprintf("msgcat: embedded catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

func loadOverrides(dir string) (map[string]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read messages dir: %w", err)
	}
	var names []string
	for _, e := range dirEntries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	out := make(map[string]string)
	owner := make(map[string]string)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := flatten(b)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, v := range flat {
			if prev, dup := owner[k]; dup {
				return nil, fmt.Errorf("message %s defined in both %s and %s", k, prev, name)
			}
			owner[k] = name
			out[k] = v
		}
	}
	return out, nil
}

// flatten turns nested YAML mappings into dotted keys. Leaves must be strings.
func flatten(b []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	var walk func(prefix string, node map[string]any) error
	walk = func(prefix string, node map[string]any) error {
		for k, v := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			switch v := v.(type) {
			case string:
				out[key] = v
			case map[string]any:
				if err := walk(key, v); err != nil {
					return err
				}
			case nil:
			default:
				return fmt.Errorf("message %s: unsupported value %T", key, v)
			}
		}
		return nil
	}
	if err := walk("", root); err != nil {
		return nil, err
	}
	return out, nil
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
	_, ok := c.tpl[strings.TrimSpace(key)]
	return ok
}

// Lookup returns the raw text for key.
func (c *Catalog) Lookup(key string) (string, bool) {
	v, ok := c.text[strings.TrimSpace(key)]
	return v, ok
}

// Render executes the template for key. Unknown keys and missing fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	t, ok := c.tpl[strings.TrimSpace(key)]
	if !ok || strings.TrimSpace(c.text[strings.TrimSpace(key)]) == "" {
		return "", fmt.Errorf("message not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
