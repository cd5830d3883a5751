// Package artifact persists per-attempt diagnostics: product JSON, outcome
// notes, and screenshot paths. Nothing in the core logic reads these back;
// they exist for operators digging into a failed run.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveProduct writes the extracted record as pretty JSON, returning the file
// path. Writes go through a temp file so a crash never leaves a truncated
// artifact.
func (s *Store) SaveProduct(attempt int, record *models.ProductRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling product record: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("product_data_%d.json", attempt))
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveNote records a short outcome note for an attempt, e.g. which proxy hit
// a captcha error.
func (s *Store) SaveNote(name string, attempt int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%d.txt", name, attempt))
	return s.writeAtomic(path, []byte(text))
}

// ScreenshotPath returns where the driver should write a screenshot for the
// given attempt and label.
func (s *Store) ScreenshotPath(name string, attempt int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%d.png", name, attempt))
}

// SaveReport writes the final run report.
func (s *Store) SaveReport(report *models.RunReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run report: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("run_report_%s.json", report.RunID))
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
