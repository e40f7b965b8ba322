// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package views keeps named view states in a YAML file so they can be
// reopened or shared later.
package views

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scatterscope/internal/viewstate"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// ErrNotFound is returned for an unknown view name.
var ErrNotFound = errors.New("view not found")

// View is one saved view. Encoded is the shareable form of State.
type View struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	SavedAt     time.Time       `json:"saved_at" yaml:"saved_at"`
	State       types.ViewState `json:"state" yaml:"state"`
	Encoded     string          `json:"encoded" yaml:"encoded"`
}

type file struct {
	Views []View `yaml:"views"`
}

// Book is the set of views stored in one file. A Book is not safe for
// concurrent use.
type Book struct {
	path  string
	views []View
}

// Open reads the views file at path. A missing file is an empty Book.
func Open(path string) (*Book, error) {
	b := &Book{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading views file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing views file: %w", err)
	}
	for _, v := range f.Views {
		if v.Name == "" {
			continue
		}
		// A hand-edited entry may carry only the encoded form.
		if v.State.X.Property == "" && v.Encoded != "" {
			s, err := viewstate.Decode(v.Encoded)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: view %s: %v\n", v.Name, err)
			}
			v.State = s
		}
		v.State = viewstate.Merge(v.State)
		v.Encoded = viewstate.Encode(v.State)
		b.views = append(b.views, v)
	}
	return b, nil
}

// Path returns the file backing b.
func (b *Book) Path() string { return b.path }

// Put stores s under name, replacing any view with that name, and writes
// the file.
func (b *Book) Put(name, description string, s types.ViewState, now time.Time) (View, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return View{}, fmt.Errorf("view name is required")
	}
	s = viewstate.Merge(s.Clone())
	v := View{
		Name:        name,
		Description: description,
		SavedAt:     now.UTC(),
		State:       s,
		Encoded:     viewstate.Encode(s),
	}

	i := b.index(name)
	if i < 0 {
		b.views = append(b.views, v)
	} else {
		b.views[i] = v
	}
	return v, b.flush()
}

// Get returns the named view.
func (b *Book) Get(name string) (View, error) {
	i := b.index(strings.TrimSpace(name))
	if i < 0 {
		return View{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b.views[i], nil
}

// List returns the views sorted by name.
func (b *Book) List() []View {
	out := slices.Clone(b.views)
	slices.SortFunc(out, func(a, b View) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Delete removes the named view and writes the file.
func (b *Book) Delete(name string) error {
	i := b.index(strings.TrimSpace(name))
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	b.views = slices.Delete(b.views, i, i+1)
	return b.flush()
}

func (b *Book) index(name string) int {
	return slices.IndexFunc(b.views, func(v View) bool { return v.Name == name })
}

// flush writes the file through a temporary file in the same directory.
func (b *Book) flush() error {
	data, err := yaml.Marshal(&file{Views: b.views})
	if err != nil {
		return fmt.Errorf("marshaling views: %w", err)
	}
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating views directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".views-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp views file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing views: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing views: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replacing views file: %w", err)
	}
	return nil
}
