package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// Extension is the file extension of template files.
const Extension = ".tmpl"

// Templates renders transactions with text/template files loaded from a
// directory. The template data is the flat view, so fields are addressed as
// {{.date}}, {{.account1}} or {{index . "amount1_negated"}}. Besides the
// standard functions, templates may call:
//
//	posting ACCOUNT AMOUNT CURRENCY   aligned posting line
//	quote TEXT                        quoted, escaped string
type Templates struct {
	dir      string
	fallback Renderer
	builtin  *Beancount

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplates creates a Templates renderer reading from dir. fallback, if
// not nil, renders ids that have no template file.
func NewTemplates(dir string, fallback Renderer) *Templates {
	return &Templates{
		dir:      dir,
		fallback: fallback,
		builtin:  NewBeancount(),
		cache:    make(map[string]*template.Template),
	}
}

// Render implements Renderer.
func (t *Templates) Render(templateID string, flat map[string]string) (string, error) {
	tmpl, err := t.lookup(templateID)
	if errors.Is(err, ErrUnknownTemplate) && t.fallback != nil {
		return t.fallback.Render(templateID, flat)
	}
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, flat); err != nil {
		return "", fmt.Errorf("template %s: %w", templateID, err)
	}
	return buf.String(), nil
}

func (t *Templates) lookup(id string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.cache[id]; ok {
		return tmpl, nil
	}
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, id)
	}

	filename := filepath.Join(t.dir, id+Extension)
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, id)
	}
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(id).
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"posting": t.builtin.Posting,
			"quote":   quote,
		}).
		Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	t.cache[id] = tmpl
	return tmpl, nil
}
