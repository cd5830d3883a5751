package parser

import (
	"testing"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

const sampleHTML = `
<html><body>
  <h1 class="pdp-mod-product-badge-title"> Wireless Mouse </h1>
  <div class="pdp-price">NT$299</div>
  <div class="pdp-product-desc">A reliable wireless mouse.</div>
  <div class="pdp-seller-info-name">GadgetShop</div>
  <div class="pdp-mod-product-image">
    <img src="https://cf.example.com/img1.jpg"/>
    <img src="https://cf.example.com/img2.jpg"/>
    <img src="https://cf.example.com/img1.jpg"/>
  </div>
</body></html>`

func TestParseProductPage(t *testing.T) {
	p := NewShopeeParser()

	record, err := p.ParseProductPage(sampleHTML, "https://shopee.tw/product/1")
	if err != nil {
		t.Fatalf("ParseProductPage() error: %v", err)
	}

	if record.Title != "Wireless Mouse" {
		t.Errorf("Title = %q, want %q", record.Title, "Wireless Mouse")
	}
	if record.Price != "NT$299" {
		t.Errorf("Price = %q, want %q", record.Price, "NT$299")
	}
	if record.Description != "A reliable wireless mouse." {
		t.Errorf("Description = %q", record.Description)
	}
	if record.Seller != "GadgetShop" {
		t.Errorf("Seller = %q, want %q", record.Seller, "GadgetShop")
	}

	// Duplicate image suppressed, order preserved.
	want := []string{"https://cf.example.com/img1.jpg", "https://cf.example.com/img2.jpg"}
	if len(record.ImageURLs) != len(want) {
		t.Fatalf("ImageURLs = %v, want %v", record.ImageURLs, want)
	}
	for i := range want {
		if record.ImageURLs[i] != want[i] {
			t.Errorf("ImageURLs[%d] = %q, want %q", i, record.ImageURLs[i], want[i])
		}
	}
}

func TestParseProductPageMissingFields(t *testing.T) {
	p := NewShopeeParser()

	record, err := p.ParseProductPage("<html><body><p>nothing useful</p></body></html>", "https://shopee.tw/p")
	if err != nil {
		t.Fatalf("ParseProductPage() error: %v", err)
	}

	// Absent fields are not an error, they are just empty.
	if record.Title != "" || record.Price != "" || record.Seller != "" {
		t.Errorf("expected empty optional fields, got %+v", record)
	}
	if record.URL != "https://shopee.tw/p" {
		t.Errorf("URL = %q", record.URL)
	}
}

func TestFillFromHTMLKeepsExistingValues(t *testing.T) {
	p := NewShopeeParser()

	record := &models.ProductRecord{
		URL:   "https://shopee.tw/p",
		Title: "Already Extracted",
	}
	p.FillFromHTML(sampleHTML, record)

	if record.Title != "Already Extracted" {
		t.Errorf("Title overwritten: %q", record.Title)
	}
	if record.Price != "NT$299" {
		t.Errorf("Price not filled from snapshot: %q", record.Price)
	}
}
