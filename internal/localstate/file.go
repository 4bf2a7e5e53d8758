package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File keeps every key in a single JSON object on disk so that state
// survives between CLI invocations.  The whole document is rewritten on
// each Set/Remove; the documents involved are tiny.
type File struct {
	mu   sync.Mutex
	path string
}

// DefaultDir returns the per-user configuration directory used by the CLI:
// $XDG_CONFIG_HOME/smartcafe, falling back to ~/.config/smartcafe.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "smartcafe")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "smartcafe")
}

// NewFile returns a store backed by path.  The file and its directory are
// created lazily on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file location.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.save(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.save(doc)
}

// load reads the document; a missing file is an empty document.
func (f *File) load() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, f.path, err)
	}
	doc := map[string]string{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStoreUnavailable, f.path, err)
	}
	return doc, nil
}

func (f *File) save(doc map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%w: mkdir: %v", ErrStoreUnavailable, err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStoreUnavailable, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("%w: write: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrStoreUnavailable, err)
	}
	return nil
}
