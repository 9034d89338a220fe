package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/clearline-dev/clearline/internal/model"
)

// Store reads and appends journal legs in a plain-text ledger repo laid out
// as <root>/<YYYY>/<MM>/journal.csv. All posting goes through a single
// process-wide mutex: statements post independently, but writes to the shared
// journal files serialize so sequence numbers never collide.
type Store struct {
	repoRoot string
	mu       sync.Mutex
}

// NewStore creates a Store rooted at a ledger repo directory.
func NewStore(repoRoot string) *Store {
	return &Store{repoRoot: repoRoot}
}

// ReadMonth reads all legs for a given year/month. A missing journal file is
// an empty month, not an error.
func (s *Store) ReadMonth(year, month int) ([]model.Leg, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// HasDocument reports whether any leg in the ledger was posted from the given
// source document. It walks every journal file, which is fine at plain-text
// repo scale.
func (s *Store) HasDocument(docID string) (bool, error) {
	if docID == "" {
		return false, nil
	}

	found := false
	err := filepath.WalkDir(s.repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found || d.IsDir() || d.Name() != "journal.csv" {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening journal %s: %w", path, err)
		}
		defer f.Close()

		legs, err := ReadLegs(f)
		if err != nil {
			return fmt.Errorf("reading journal %s: %w", path, err)
		}
		for _, leg := range legs {
			if leg.SourceDocument == docID {
				found = true
				return fs.SkipAll
			}
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return found, nil
}

// appendMonth appends legs to a month's journal file, creating the directory
// and header as needed. Callers hold s.mu and have already validated.
func (s *Store) appendMonth(year, month int, legs []model.Leg) error {
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if err := AppendLegs(f, legs); err != nil {
		return fmt.Errorf("appending legs: %w", err)
	}
	return nil
}

func (s *Store) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}
