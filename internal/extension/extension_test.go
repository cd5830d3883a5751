package extension

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixtureExtension(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "solver")
	if err := os.MkdirAll(filepath.Join(src, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"manifest.json":     `{"name": "solver", "version": "1.0"}`,
		"script.js":         "// solver entry\n" + keyPlaceholder + "\nrun(apiKey);\n",
		"scripts/helper.js": "function helper() {}\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func TestLoadPatchesAPIKey(t *testing.T) {
	src := writeFixtureExtension(t)
	solver := NewSolver(src, "test-key-123")

	loaded, err := solver.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(loaded, "script.js"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if strings.Contains(content, keyPlaceholder) {
		t.Error("placeholder still present after patching")
	}
	if !strings.Contains(content, `var apiKey = "test-key-123";`) {
		t.Errorf("key not patched in, content:\n%s", content)
	}

	// Files without the placeholder are copied untouched.
	helper, err := os.ReadFile(filepath.Join(loaded, "scripts", "helper.js"))
	if err != nil {
		t.Fatal(err)
	}
	if string(helper) != "function helper() {}\n" {
		t.Errorf("helper.js modified: %q", string(helper))
	}
}

func TestLoadLeavesSourceUntouched(t *testing.T) {
	src := writeFixtureExtension(t)
	solver := NewSolver(src, "test-key-123")

	if _, err := solver.Load(t.TempDir()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(src, "script.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), keyPlaceholder) {
		t.Error("source extension was modified in place")
	}
}

func TestLoadMissingSource(t *testing.T) {
	solver := NewSolver(filepath.Join(t.TempDir(), "nope"), "k")
	if _, err := solver.Load(t.TempDir()); err == nil {
		t.Fatal("Load() with missing source returned nil error")
	}

	solver = NewSolver("", "k")
	if _, err := solver.Load(t.TempDir()); err == nil {
		t.Fatal("Load() with empty source returned nil error")
	}
}
