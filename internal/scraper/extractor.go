package scraper

import (
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/driver"
	"github.com/maltedev/shopee-product-scraper/internal/models"
	"github.com/maltedev/shopee-product-scraper/internal/parser"
)

// Selector catalogs for live extraction through the driver. The goquery
// parser carries the same catalogs for the snapshot fallback.

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

// extractProduct reads product fields from the live page, then backfills
// anything still missing from a content snapshot.
func extractProduct(page driver.Page, proxyServer string) *models.ProductRecord {
	record := &models.ProductRecord{
		URL:       page.URL(),
		ScrapedAt: time.Now().UTC(),
		ProxyUsed: proxyServer,
	}

	record.Title = firstTextOf(page, titleSelectors)
	record.Price = firstTextOf(page, priceSelectors)
	record.Description = firstTextOf(page, descriptionSelectors)
	record.Seller = firstTextOf(page, sellerSelectors)

	for _, sel := range imageSelectors {
		srcs := page.AttrAll(sel, "src")
		if len(srcs) == 0 {
			continue
		}
		for _, src := range srcs {
			record.AddImageURL(src)
		}
		break
	}

	if content, err := page.Content(); err == nil {
		parser.NewShopeeParser().FillFromHTML(content, record)
	}

	return record
}

func firstTextOf(page driver.Page, selectors []string) string {
	for _, sel := range selectors {
		if text, ok := page.TextOf(sel); ok && text != "" {
			return text
		}
	}
	return ""
}
