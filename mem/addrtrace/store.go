package addrtrace

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sarchlab/mmusim/sim"
)

// A Store keeps trace files in one directory. It serves as the TraceOpener of
// a simulation engine.
type Store struct {
	dir  string
	lock sync.Mutex
}

// NewStore creates a store on dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the names of the stored traces, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading trace directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || ValidateName(e.Name()) != nil {
			continue
		}

		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names, nil
}

// Open opens a stored trace.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: trace %q", sim.ErrNotFound, name)
	}

	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: trace %q", sim.ErrNotFound, name)
	}

	return f, nil
}

// Create creates a new, empty trace. It fails with ErrConflict if the name
// is taken.
func (s *Store) Create(name string) (*os.File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.create(name)
}

func (s *Store) create(name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(s.dir, name),
		os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: trace %q already exists",
			sim.ErrConflict, name)
	}

	return f, err
}

// Generate writes the trace described by c under c.FileName. A trace that
// cannot be written completely is removed.
func (s *Store) Generate(c Config) error {
	if err := ValidateName(c.FileName); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	f, err := s.create(c.FileName)
	if err != nil {
		return err
	}

	err = WriteTrace(f, c)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("writing trace %q: %w", c.FileName, err)
	}

	return nil
}
