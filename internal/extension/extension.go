// Package extension prepares the captcha-solver browser extension for
// loading. The solver ships as an unpacked Chrome extension that reads its
// API key from localStorage; since an automated profile starts cold, the key
// is patched directly into the extension's scripts instead.
package extension

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// keyPlaceholder is the line the stock extension uses to look up its key.
const keyPlaceholder = `var apiKey = localStorage.getItem("sadCaptchaKey");`

type Solver struct {
	srcDir string
	apiKey string
}

// NewSolver points at an unpacked extension directory. The directory is
// never modified; Load works on a copy.
func NewSolver(srcDir, apiKey string) *Solver {
	return &Solver{srcDir: srcDir, apiKey: apiKey}
}

// Load copies the extension into workDir and patches the API key into every
// JavaScript file, returning the path to pass to the browser's
// --load-extension flag.
func (s *Solver) Load(workDir string) (string, error) {
	if s.srcDir == "" {
		return "", fmt.Errorf("extension source directory not configured")
	}
	if _, err := os.Stat(s.srcDir); err != nil {
		return "", fmt.Errorf("extension source directory: %w", err)
	}

	dst := filepath.Join(workDir, filepath.Base(s.srcDir))
	if err := copyTree(s.srcDir, dst); err != nil {
		return "", fmt.Errorf("copying extension: %w", err)
	}

	if err := s.patchScripts(dst); err != nil {
		return "", err
	}

	return dst, nil
}

func (s *Solver) patchScripts(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".js") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		content := string(data)
		if !strings.Contains(content, keyPlaceholder) {
			return nil
		}

		patched := strings.ReplaceAll(content, keyPlaceholder,
			fmt.Sprintf("var apiKey = %q;", s.apiKey))
		if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return nil
	})
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
