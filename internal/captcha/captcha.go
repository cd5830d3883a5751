// Package captcha implements the wait protocol around the opaque solver
// extension. The protocol is a single long suspension, not a poll loop: the
// extension is trusted to act within the budget and only the resulting page
// state is evaluated.
package captcha

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultWait is how long the solver extension gets to resolve a displayed
// challenge before the page is re-inspected.
const DefaultWait = 4 * time.Minute

// MarkerSelectors match the elements the target renders when it shows an
// anti-bot challenge screen.
var MarkerSelectors = []string{
	`div[id="New Captcha"]`,
	`div[id="captchaMask"]`,
}

// errorTexts are the localized strings a failed challenge resolves to.
var errorTexts = []string{
	"頁面無法顯示",
	"發生錯誤！請返回再試一次或回到主頁",
	"Page cannot be displayed",
	"An error occurred! Please go back and try again or return to the homepage",
	"驗證資訊失敗",
	"抱歉，目前發生了一些錯誤。請下載並登入蝦皮購物 App 以繼續使用。",
	"登出",
}

type Verdict int

const (
	VerdictSolved Verdict = iota
	VerdictFailed
)

func (v Verdict) String() string {
	if v == VerdictSolved {
		return "solved"
	}
	return "failed"
}

// ContentReader is the single page capability the protocol needs after the
// wait expires.
type ContentReader interface {
	Content() (string, error)
}

type Protocol struct {
	wait   time.Duration
	logger *slog.Logger
}

func NewProtocol(wait time.Duration, logger *slog.Logger) *Protocol {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Protocol{
		wait:   wait,
		logger: logger.With("component", "captcha"),
	}
}

// Resolve blocks for the full wait budget, then re-reads the page and
// classifies the outcome. Only context cancellation interrupts the wait.
func (p *Protocol) Resolve(ctx context.Context, page ContentReader) (Verdict, error) {
	p.logger.Info("waiting for challenge to resolve", "budget", p.wait)

	timer := time.NewTimer(p.wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return VerdictFailed, ctx.Err()
	case <-timer.C:
	}

	content, err := page.Content()
	if err != nil {
		return VerdictFailed, fmt.Errorf("reading page after captcha wait: %w", err)
	}

	for _, text := range errorTexts {
		if strings.Contains(content, text) {
			p.logger.Info("challenge failed", "error_text", text)
			return VerdictFailed, nil
		}
	}

	p.logger.Info("challenge resolved")
	return VerdictSolved, nil
}
