package persist

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"pkt.systems/pslog"
)

// Store reads and atomically writes named files under one state directory.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a persistent store at the given directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for name.
func (s *Store) Path(name string) string {
	clean := sanitize(name)
	if clean == "" {
		clean = "unnamed"
	}
	return filepath.Join(s.dir, clean)
}

// LoadJSON decodes the named file into v. A missing file reports false.
func (s *Store) LoadJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "file", name)
			}
			return false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "file", name, "err", err)
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "file", name, "err", err)
		}
		return false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "file", name, "bytes", len(data))
	}
	return true, nil
}

// SaveJSON replaces the named file with the indented JSON encoding of v.
func (s *Store) SaveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "file", name, "err", err)
		}
		return err
	}
	return s.Write(name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Open opens the named file for reading. A missing file reports false.
func (s *Store) Open(name string) (*os.File, bool, error) {
	file, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		if s.log != nil {
			s.log.Warn("state open failed", "file", name, "err", err)
		}
		return nil, false, err
	}
	return file, true, nil
}

// Write replaces the named file with whatever fill writes. Readers see either
// the old or the new content, never a partial file.
func (s *Store) Write(name string, fill func(io.Writer) error) error {
	path := s.Path(name)
	fail := func(err error) error {
		if s.log != nil {
			s.log.Warn("state save failed", "file", name, "err", err)
		}
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.tmp")
	if err != nil {
		return fail(err)
	}
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fail(err)
	}
	if s.log != nil {
		s.log.Trace("state save ok", "file", name)
	}
	return nil
}

// Remove deletes the named file. Removing a missing file is not an error.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		if s.log != nil {
			s.log.Warn("state remove failed", "file", name, "err", err)
		}
		return err
	}
	return nil
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return strings.TrimLeft(b.String(), ".")
}
