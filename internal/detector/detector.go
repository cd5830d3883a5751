// Package detector classifies loaded pages: is the target refusing service,
// and did a post-login page come back usable. Deliberately conservative — a
// false positive costs one retry, a false negative means operating on an
// error page.
package detector

import (
	"log/slog"
	"strings"
)

const (
	// blockContentMin is the near-blank threshold applied before login.
	blockContentMin = 100
	// postLoginContentMin is the near-blank threshold applied after login
	// and after the captcha wait. The original system used a higher bar
	// here; keep the two thresholds distinct.
	postLoginContentMin = 200
)

// blockIndicators are locale-specific strings the target shows when it has
// refused service to the current session.
var blockIndicators = []string{
	"驗證資訊失敗",
	"抱歉，我們無法驗證資訊，請稍等並再試一次。",
	"再試一次",
	"請登入蝦皮購物 App",
	"抱歉，目前發生了一些錯誤。請下載並登入蝦皮購物 App 以繼續使用。",
	"登出",
}

// appOnlyErrorTexts mark the "continue in the mobile app" dead end shown
// after an unsuccessful login.
var appOnlyErrorTexts = []string{
	"Please log in to Shopee Shopping App",
	"Sorry, some errors have occurred",
	"請登入蝦皮購物 App",
	"抱歉，目前發生了一些錯誤",
}

// PostLoginVerdict is the result of the shared post-login classifier.
type PostLoginVerdict int

const (
	PostLoginOK PostLoginVerdict = iota
	PostLoginAppOnlyError
	PostLoginBlank
)

func (v PostLoginVerdict) String() string {
	switch v {
	case PostLoginOK:
		return "ok"
	case PostLoginAppOnlyError:
		return "app_only_error"
	case PostLoginBlank:
		return "blank_page"
	default:
		return "unknown"
	}
}

type Detector struct {
	targetDomain string
	logger       *slog.Logger
}

// New creates a detector scoped to the target domain, e.g. "shopee".
func New(targetDomain string, logger *slog.Logger) *Detector {
	return &Detector{
		targetDomain: targetDomain,
		logger:       logger.With("component", "detector"),
	}
}

// IsBlocked reports whether the loaded page indicates the target is blocking
// the session. Checks run in order and short-circuit on the first hit:
// near-blank content on the target domain, known block-indicator strings,
// absence of the expected login affordance, transport status >= 400.
// Callers must treat any failure to gather these inputs as blocked.
func (d *Detector) IsBlocked(content, currentURL string, markerPresent bool, status int) bool {
	onTarget := strings.Contains(currentURL, d.targetDomain)

	if len(strings.TrimSpace(content)) < blockContentMin && onTarget {
		d.logger.Info("near-blank page, treating as blocked", "url", currentURL)
		return true
	}

	for _, indicator := range blockIndicators {
		if strings.Contains(content, indicator) {
			d.logger.Info("block indicator found", "indicator", indicator)
			return true
		}
	}

	if !markerPresent && onTarget {
		d.logger.Info("expected login affordance missing, treating as blocked", "url", currentURL)
		return true
	}

	if status >= 400 {
		d.logger.Info("error status from navigation", "status", status)
		return true
	}

	return false
}

// ClassifyPostLogin inspects page content after the login flow (and again
// after the captcha wait) for the app-only dead end or a near-blank page.
func (d *Detector) ClassifyPostLogin(content string) PostLoginVerdict {
	for _, text := range appOnlyErrorTexts {
		if strings.Contains(content, text) {
			d.logger.Info("app-only error text found", "text", text)
			return PostLoginAppOnlyError
		}
	}

	if len(strings.TrimSpace(content)) < postLoginContentMin {
		d.logger.Info("near-blank page after login")
		return PostLoginBlank
	}

	return PostLoginOK
}
