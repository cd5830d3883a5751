package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

// selector catalogs for parsing a product-page snapshot. The live extractor
// asks the driver first; this parser covers the same fields from raw HTML
// when locator reads come back empty.

var titleSelectors = []string{
	".pdp-mod-product-badge-title",
	".product-title",
	"h1.pdp-title",
	`h1[data-testid="pdp-product-title"]`,
	".product-detail-panel__header__title",
}

var priceSelectors = []string{
	".pdp-price",
	".product-price",
	".pdp-mod-product-price",
	`div[data-testid="pdp-product-price"]`,
	".product-detail-panel__price",
}

var descriptionSelectors = []string{
	".pdp-product-desc",
	".product-description",
	".pdp-mod-product-desc",
	`div[data-testid="pdp-product-desc"]`,
	".product-detail-panel__description",
}

var imageSelectors = []string{
	".pdp-mod-product-image img",
	".product-image img",
	".pdp-product-image img",
	`img[data-testid="pdp-product-image"]`,
	".product-detail-panel__image img",
}

var sellerSelectors = []string{
	".pdp-seller-info-name",
	".product-seller-name",
	".pdp-shop-name",
	`div[data-testid="pdp-shop-name"]`,
	".product-detail-panel__seller",
}

type ShopeeParser struct{}

func NewShopeeParser() *ShopeeParser {
	return &ShopeeParser{}
}

// ParseProductPage extracts product fields from an HTML snapshot. Fields
// with no matching selector stay empty.
func (p *ShopeeParser) ParseProductPage(html, url string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	record := &models.ProductRecord{URL: url}
	p.FillMissing(doc, record)

	return record, nil
}

// FillMissing populates any empty field of record from the document. Already
// populated fields are left alone so driver-side reads win.
func (p *ShopeeParser) FillMissing(doc *goquery.Document, record *models.ProductRecord) {
	if record.Title == "" {
		record.Title = firstText(doc, titleSelectors)
	}
	if record.Price == "" {
		record.Price = firstText(doc, priceSelectors)
	}
	if record.Description == "" {
		record.Description = firstText(doc, descriptionSelectors)
	}
	if record.Seller == "" {
		record.Seller = firstText(doc, sellerSelectors)
	}

	if len(record.ImageURLs) == 0 {
		for _, sel := range imageSelectors {
			found := false
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if src, ok := s.Attr("src"); ok {
					record.AddImageURL(strings.TrimSpace(src))
					found = true
				}
			})
			if found {
				break
			}
		}
	}
}

// FillFromHTML is FillMissing over a raw snapshot. A snapshot that fails to
// parse leaves the record untouched.
func (p *ShopeeParser) FillFromHTML(html string, record *models.ProductRecord) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}
	p.FillMissing(doc, record)
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := strings.TrimSpace(s.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}
