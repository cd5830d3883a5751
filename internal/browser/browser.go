// Package browser is the playwright-backed implementation of the driver
// interfaces: persistent Chromium contexts bound to a proxy, with the solver
// extension loaded and light anti-automation hardening applied.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/shopee-product-scraper/internal/driver"
	"github.com/maltedev/shopee-product-scraper/internal/proxy"
)

type Options struct {
	Headless      bool
	UserDataDir   string
	ExtensionPath string
	LaunchTimeout time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Headless:      false,
		UserDataDir:   ".user_data",
		LaunchTimeout: 2 * time.Minute,
	}
}

// Launcher opens one persistent browser context per call. Each session owns
// its own playwright driver instance so closing a session tears everything
// down.
type Launcher struct {
	opts   *Options
	logger *slog.Logger
}

func NewLauncher(opts *Options, logger *slog.Logger) *Launcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Launcher{
		opts:   opts,
		logger: logger.With("component", "browser"),
	}
}

func (l *Launcher) Launch(ctx context.Context, p proxy.Config) (driver.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
	}
	if l.opts.ExtensionPath != "" {
		args = append(args,
			"--disable-extensions-except="+l.opts.ExtensionPath,
			"--load-extension="+l.opts.ExtensionPath,
		)
	}

	launchOpts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     args,
		Timeout:  playwright.Float(float64(l.opts.LaunchTimeout.Milliseconds())),
	}
	if p.Server != "" {
		launchOpts.Proxy = &playwright.Proxy{
			Server: p.Server,
		}
		if p.Username != "" {
			launchOpts.Proxy.Username = playwright.String(p.Username)
			launchOpts.Proxy.Password = playwright.String(p.Password)
		}
		l.logger.Info("launching browser with proxy", "proxy", p.Server)
	} else {
		l.logger.Info("launching browser without proxy")
	}

	browserCtx, err := pw.Chromium.LaunchPersistentContext(l.opts.UserDataDir, launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser context: %w", err)
	}

	pg, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	// Hide the obvious automation tell before any site script runs.
	if err := pg.AddInitScript(playwright.Script{
		Content: playwright.String("delete Object.getPrototypeOf(navigator).webdriver"),
	}); err != nil {
		l.logger.Warn("failed to add init script", "error", err)
	}

	return &session{
		pw:      pw,
		browser: browserCtx,
		page:    newPage(pg),
	}, nil
}

type session struct {
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    *page
}

func (s *session) Page() driver.Page {
	return s.page
}

func (s *session) Close() error {
	var errs []error

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// page adapts a playwright page to driver.Page, tracking the transport
// status of the main document as responses arrive.
type page struct {
	pg playwright.Page

	mu         sync.Mutex
	lastStatus int
}

func newPage(pg playwright.Page) *page {
	p := &page{pg: pg}
	pg.OnResponse(func(resp playwright.Response) {
		if resp.Request().ResourceType() != "document" {
			return
		}
		p.mu.Lock()
		p.lastStatus = resp.Status()
		p.mu.Unlock()
	})
	return p
}

func (p *page) Goto(url string, timeout time.Duration) error {
	_, err := p.pg.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("navigating to %s: %w", url, driver.ErrTimeout)
		}
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (p *page) URL() string {
	return p.pg.URL()
}

func (p *page) Title() (string, error) {
	return p.pg.Title()
}

func (p *page) Content() (string, error) {
	return p.pg.Content()
}

func (p *page) Exists(selector string) bool {
	count, err := p.pg.Locator(selector).Count()
	return err == nil && count > 0
}

func (p *page) WaitFor(selector string, timeout time.Duration) bool {
	err := p.pg.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (p *page) Click(selector string) error {
	return p.pg.Locator(selector).First().Click()
}

// TypeInto types character by character with a randomized delay, the way a
// person would.
func (p *page) TypeInto(selector, text string, minKeyDelay, maxKeyDelay time.Duration) error {
	loc := p.pg.Locator(selector).First()
	if err := loc.Click(); err != nil {
		return fmt.Errorf("focusing %s: %w", selector, err)
	}

	for _, r := range text {
		delay := keyDelay(minKeyDelay, maxKeyDelay)
		if err := loc.PressSequentially(string(r), playwright.LocatorPressSequentiallyOptions{
			Delay: playwright.Float(float64(delay.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("typing into %s: %w", selector, err)
		}
		time.Sleep(keyDelay(minKeyDelay/10, maxKeyDelay/10))
	}
	return nil
}

func (p *page) ExpectPopup(trigger func() error, timeout time.Duration) (driver.Page, error) {
	popup, err := p.pg.ExpectPopup(trigger, playwright.PageExpectPopupOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("waiting for popup: %w", driver.ErrTimeout)
		}
		return nil, fmt.Errorf("waiting for popup: %w", err)
	}
	return newPage(popup), nil
}

// ActivateAny clicks the first matching selector inside the page itself.
// Invalid selectors are swallowed in-page, so pseudo-selectors in the list
// cannot break the operation.
func (p *page) ActivateAny(selectors []string) bool {
	sels, err := json.Marshal(selectors)
	if err != nil {
		return false
	}

	script := fmt.Sprintf(`(() => {
		const selectors = %s;
		for (const sel of selectors) {
			try {
				const el = document.querySelector(sel);
				if (el) {
					el.click();
					return true;
				}
			} catch (e) {}
		}
		return false;
	})()`, string(sels))

	result, err := p.pg.Evaluate(script)
	if err != nil {
		return false
	}
	clicked, ok := result.(bool)
	return ok && clicked
}

func (p *page) TextOf(selector string) (string, bool) {
	loc := p.pg.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return "", false
	}
	text, err := loc.First().TextContent()
	if err != nil {
		return "", false
	}
	return text, true
}

func (p *page) AttrAll(selector, attr string) []string {
	loc := p.pg.Locator(selector)
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil
	}

	values := make([]string, 0, count)
	for i := 0; i < count; i++ {
		value, err := loc.Nth(i).GetAttribute(attr)
		if err != nil || value == "" {
			continue
		}
		values = append(values, value)
	}
	return values
}

func (p *page) Screenshot(path string) error {
	_, err := p.pg.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (p *page) LastStatus() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastStatus
}

func keyDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}
