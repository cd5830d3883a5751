package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

func TestSaveProductRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	record := &models.ProductRecord{
		Title:     "Wireless Mouse",
		URL:       "https://shopee.tw/p/1",
		ScrapedAt: time.Now().UTC(),
		ProxyUsed: "http://proxy0:8080",
	}

	path, err := store.SaveProduct(3, record)
	if err != nil {
		t.Fatalf("SaveProduct() error: %v", err)
	}
	if filepath.Base(path) != "product_data_3.json" {
		t.Errorf("unexpected artifact name %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got models.ProductRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if got.Title != record.Title || got.URL != record.URL {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file still present next to %s", path)
	}
}

func TestSaveNote(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.SaveNote("captcha_error", 2, "captcha error with proxy http://p:1"); err != nil {
		t.Fatalf("SaveNote() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "captcha_error_2.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "captcha error with proxy http://p:1" {
		t.Errorf("note content = %q", string(data))
	}
}

func TestScreenshotPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, "login_error_5.png")
	if got := store.ScreenshotPath("login_error", 5); got != want {
		t.Errorf("ScreenshotPath() = %s, want %s", got, want)
	}
}
