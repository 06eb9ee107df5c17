// Package file stores cart slots as JSON files in a directory.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage keeps one "<slot>.json" file per slot under Dir.
type Storage struct {
	dir string
}

// New returns a Storage rooted at dir. The directory is created on first
// save.
func New(dir string) *Storage {
	return &Storage{dir: dir}
}

// Path returns the file backing slot.
func (s *Storage) Path(slot string) (string, error) {
	if slot == "" || slot != filepath.Base(slot) || strings.HasPrefix(slot, ".") {
		return "", errors.Errorf("invalid slot name %q", slot)
	}
	return filepath.Join(s.dir, slot+".json"), nil
}

// Load reads and decodes slot. A missing file yields cart.ErrNoSavedCart.
func (s *Storage) Load(_ context.Context, slot string) ([]cart.LineItem, error) {
	path, err := s.Path(slot)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cart.ErrNoSavedCart
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	return cart.DecodeLines(raw)
}

// Save writes lines to slot atomically: a temp file in the same directory is
// renamed over the previous contents.
func (s *Storage) Save(_ context.Context, slot string, lines []cart.LineItem) error {
	path, err := s.Path(slot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, "."+slot+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(cart.EncodeLines(lines)); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}

// Ping checks that the directory exists or can be created.
func (s *Storage) Ping(context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.dir)
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.Wrapf(err, "stat %s", s.dir)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
