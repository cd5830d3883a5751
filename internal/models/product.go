package models

import (
	"time"
)

// ProductRecord is the structured result of one successful extraction.
// Optional fields are simply absent when no selector matched; that is not an
// error.
type ProductRecord struct {
	Title       string    `json:"title,omitempty"`
	Price       string    `json:"price,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	Seller      string    `json:"seller,omitempty"`
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scraped_at"`
	ProxyUsed   string    `json:"proxy_used,omitempty"`
}

// AddImageURL appends a URL, suppressing duplicates while preserving order.
func (p *ProductRecord) AddImageURL(url string) {
	if url == "" {
		return
	}
	for _, existing := range p.ImageURLs {
		if existing == url {
			return
		}
	}
	p.ImageURLs = append(p.ImageURLs, url)
}

// AttemptResult summarizes one attempt of a run.
type AttemptResult struct {
	Attempt int    `json:"attempt"`
	Proxy   string `json:"proxy"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// RunReport summarizes a whole rotation run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	TargetURL  string          `json:"target_url"`
	Success    bool            `json:"success"`
	Attempts   []AttemptResult `json:"attempts"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}
