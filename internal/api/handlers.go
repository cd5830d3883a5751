// Package api is the thin HTTP front-end: a single scrape endpoint that
// drives one session without proxy rotation. All internal failures map to a
// structured response; raw errors never reach the client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maltedev/shopee-product-scraper/internal/driver"
	"github.com/maltedev/shopee-product-scraper/internal/models"
)

// Scraper is the service surface the handlers need.
type Scraper interface {
	ScrapeDirect(ctx context.Context, targetURL string) (*models.ProductRecord, error)
}

type Handlers struct {
	scraper Scraper
	logger  *slog.Logger
}

func NewHandlers(scraper Scraper, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: scraper,
		logger:  logger.With("component", "api"),
	}
}

// ScrapeRequest is the payload for a scrape call.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse is the structured result of a scrape call.
type ScrapeResponse struct {
	Success bool                  `json:"success"`
	Data    *models.ProductRecord `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
}

// Scrape handles POST /scrape.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, ScrapeResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if !validTargetURL(req.URL) {
		h.respondJSON(w, http.StatusBadRequest, ScrapeResponse{
			Success: false,
			Message: "url must be a valid absolute http(s) URL",
		})
		return
	}

	record, err := h.scraper.ScrapeDirect(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("scrape failed", "url", req.URL, "error", err)
		h.respondJSON(w, http.StatusOK, ScrapeResponse{
			Success: false,
			Message: failureMessage(err),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, ScrapeResponse{
		Success: true,
		Data:    record,
		Message: "Product data scraped successfully",
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// failureMessage maps internal errors to operator-readable text without
// leaking internals.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, driver.ErrTimeout):
		return "Timeout occurred while accessing the product page"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Scrape was cancelled"
	default:
		return "Error during scraping: " + err.Error()
	}
}

func validTargetURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
