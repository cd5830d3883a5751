// Package driver declares the capability surface this system needs from a
// browser-automation backend. The orchestration code depends only on these
// interfaces; the playwright implementation lives in internal/browser and
// tests substitute fakes.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/proxy"
)

// ErrTimeout is returned (wrapped) when a navigation or wait exceeds its
// per-step budget. The attempt loop treats it as a retry signal, not a
// fatal error.
var ErrTimeout = errors.New("driver: operation timed out")

// Launcher opens browser sessions bound to a proxy. Exactly one session is
// live at a time; the caller owns its lifecycle.
type Launcher interface {
	Launch(ctx context.Context, p proxy.Config) (Session, error)
}

// Session is a scoped browser resource, acquired at the start of an attempt
// and released on every exit path of that attempt.
type Session interface {
	Page() Page
	Close() error
}

// Page is the subset of page capabilities the orchestration uses.
type Page interface {
	// Goto navigates to url, waiting up to timeout for the document to
	// load. A wrapped ErrTimeout signals budget overrun.
	Goto(url string, timeout time.Duration) error

	URL() string
	Title() (string, error)
	Content() (string, error)

	// Exists reports whether at least one element matches selector right
	// now, without waiting.
	Exists(selector string) bool

	// WaitFor waits up to timeout for selector to match, reporting
	// whether it did.
	WaitFor(selector string, timeout time.Duration) bool

	Click(selector string) error

	// TypeInto enters text into selector character by character with a
	// randomized delay in [minKeyDelay, maxKeyDelay] between keystrokes.
	TypeInto(selector, text string, minKeyDelay, maxKeyDelay time.Duration) error

	// ExpectPopup runs trigger and waits up to timeout for a new browser
	// surface to open, returning its page.
	ExpectPopup(trigger func() error, timeout time.Duration) (Page, error)

	// ActivateAny attempts, in one idempotent in-page operation, to click
	// the first element matching any of selectors. It reports whether
	// anything was clicked; matching nothing is not an error.
	ActivateAny(selectors []string) bool

	// TextOf returns the text content of the first element matching
	// selector, reporting whether one matched.
	TextOf(selector string) (string, bool)

	// AttrAll returns the given attribute of every element matching
	// selector, in document order.
	AttrAll(selector, attr string) []string

	Screenshot(path string) error

	// LastStatus is the transport status of the most recent main-document
	// response, or 0 when unknown.
	LastStatus() int
}
