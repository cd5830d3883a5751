// Package scraper ties the resilience pieces together: proxy rotation,
// session lifecycle, block detection, the login flow, the captcha wait, and
// final outcome classification.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/shopee-product-scraper/internal/artifact"
	"github.com/maltedev/shopee-product-scraper/internal/captcha"
	"github.com/maltedev/shopee-product-scraper/internal/detector"
	"github.com/maltedev/shopee-product-scraper/internal/driver"
	"github.com/maltedev/shopee-product-scraper/internal/login"
	"github.com/maltedev/shopee-product-scraper/internal/models"
	"github.com/maltedev/shopee-product-scraper/internal/pacing"
	"github.com/maltedev/shopee-product-scraper/internal/proxy"
)

// ErrAttemptsExhausted means every allowed attempt ended in a retryable
// outcome.
var ErrAttemptsExhausted = errors.New("maximum attempt count reached without success")

// languageDialogSelector matches the locale-selection dialog the target
// sometimes shows before anything else.
const languageDialogSelector = `button:has-text("繁體中文")`

// LoginRunner is the login orchestrator's surface, split out so tests can
// script login results.
type LoginRunner interface {
	Run(host driver.Page) login.Result
}

// Sink observes finished attempts. Implementations must not block the loop
// for long; errors are logged, never fatal.
type Sink interface {
	AttemptFinished(ctx context.Context, runID, targetURL string, res models.AttemptResult)
}

type Options struct {
	MaxAttempts int
	NavTimeout  time.Duration
	// PostNavSettle is the fixed stabilization wait after navigation.
	PostNavSettle time.Duration
	// PostLoginSettleMin/Max bound the randomized wait for the
	// redirect back to the target after the popup closes.
	PostLoginSettleMin time.Duration
	PostLoginSettleMax time.Duration
	// DirectProxy, when set, is the single egress used by ScrapeDirect.
	DirectProxy *proxy.Config
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:        10,
		NavTimeout:         2 * time.Minute,
		PostNavSettle:      10 * time.Second,
		PostLoginSettleMin: 5 * time.Second,
		PostLoginSettleMax: 8 * time.Second,
	}
}

// Deps are the collaborators a Service needs. Rotator, Launcher, Login,
// Captcha, Detector and Artifacts are required; Sinks may be empty.
type Deps struct {
	Rotator   *proxy.Rotator
	Launcher  driver.Launcher
	Login     LoginRunner
	Captcha   *captcha.Protocol
	Detector  *detector.Detector
	Artifacts *artifact.Store
	Sinks     []Sink
}

type Service struct {
	rotator   *proxy.Rotator
	launcher  driver.Launcher
	login     LoginRunner
	captcha   *captcha.Protocol
	detector  *detector.Detector
	artifacts *artifact.Store
	sinks     []Sink
	opts      Options
	logger    *slog.Logger
}

func NewService(deps Deps, opts Options, logger *slog.Logger) *Service {
	return &Service{
		rotator:   deps.Rotator,
		launcher:  deps.Launcher,
		login:     deps.Login,
		captcha:   deps.Captcha,
		detector:  deps.Detector,
		artifacts: deps.Artifacts,
		sinks:     deps.Sinks,
		opts:      opts,
		logger:    logger.With("component", "scraper"),
	}
}

// Run executes the attempt loop against targetURL until one attempt
// succeeds or the attempt budget is spent. Only an empty proxy pool or the
// exhausted budget end the run; every other condition rotates the proxy and
// tries again.
func (s *Service) Run(ctx context.Context, targetURL string) (*models.ProductRecord, *models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		TargetURL: targetURL,
		StartedAt: time.Now().UTC(),
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now().UTC()
			return nil, report, err
		}

		p, err := s.rotator.Next()
		if err != nil {
			report.FinishedAt = time.Now().UTC()
			return nil, report, fmt.Errorf("selecting proxy: %w", err)
		}

		s.logger.Info("starting attempt",
			"run_id", report.RunID, "attempt", attempt, "proxy", p.Server)

		outcome, record, detail := s.attempt(ctx, attempt, p, targetURL)

		res := models.AttemptResult{
			Attempt: attempt,
			Proxy:   p.Server,
			Outcome: outcome.String(),
			Error:   detail,
		}
		report.Attempts = append(report.Attempts, res)
		s.notify(ctx, report.RunID, targetURL, res)

		s.logger.Info("attempt finished",
			"run_id", report.RunID, "attempt", attempt,
			"proxy", p.Server, "outcome", outcome.String())

		if outcome == OutcomeSuccess {
			report.Success = true
			report.FinishedAt = time.Now().UTC()
			return record, report, nil
		}
	}

	report.FinishedAt = time.Now().UTC()
	return nil, report, ErrAttemptsExhausted
}

// attempt runs one full cycle: session launch, navigation, block check,
// login, captcha wait, post-login classification, extraction. The session is
// closed on every exit path.
func (s *Service) attempt(ctx context.Context, attempt int, p proxy.Config, targetURL string) (Outcome, *models.ProductRecord, string) {
	sess, err := s.launcher.Launch(ctx, p)
	if err != nil {
		return OutcomeUnexpectedError, nil, fmt.Sprintf("launching session: %v", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("closing session", "error", err)
		}
	}()

	page := sess.Page()

	if err := page.Goto(targetURL, s.opts.NavTimeout); err != nil {
		s.screenshot(page, "timeout", attempt)
		if errors.Is(err, driver.ErrTimeout) {
			return OutcomeTimeout, nil, err.Error()
		}
		return OutcomeUnexpectedError, nil, err.Error()
	}

	if s.opts.PostNavSettle > 0 {
		pacing.Sleep(s.opts.PostNavSettle, s.opts.PostNavSettle)
	}

	// Fail-closed: a driver fault while gathering the detector's inputs
	// counts as blocked.
	content, err := page.Content()
	if err != nil {
		return OutcomeBlocked, nil, fmt.Sprintf("reading page content: %v", err)
	}
	markerPresent := existsAny(page, login.ButtonSelectors)

	if s.detector.IsBlocked(content, page.URL(), markerPresent, page.LastStatus()) {
		return OutcomeBlocked, nil, ""
	}

	// Locale dialog sometimes sits in front of everything else.
	if page.Exists(languageDialogSelector) {
		if err := page.Click(languageDialogSelector); err == nil {
			s.logger.Info("dismissed language dialog")
		}
	}

	res := s.login.Run(page)
	if !res.OK() {
		s.screenshot(page, "login_error", attempt)
		return OutcomeLoginFailed, nil, string(res.Reason)
	}

	pacing.Sleep(s.opts.PostLoginSettleMin, s.opts.PostLoginSettleMax)

	if existsAny(page, captcha.MarkerSelectors) {
		s.note("captcha_seen", attempt, "captcha displayed with proxy: "+p.Server)

		verdict, err := s.captcha.Resolve(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeUnexpectedError, nil, ctx.Err().Error()
			}
			return OutcomeCaptchaError, nil, err.Error()
		}
		if verdict == captcha.VerdictFailed {
			s.screenshot(page, "captcha_error", attempt)
			s.note("captcha_error", attempt, "captcha error with proxy: "+p.Server)
			return OutcomeCaptchaError, nil, ""
		}
		s.note("captcha_success", attempt, "captcha solved with proxy: "+p.Server)
	}

	content, err = page.Content()
	if err != nil {
		return OutcomeBlocked, nil, fmt.Sprintf("re-reading page content: %v", err)
	}
	switch s.detector.ClassifyPostLogin(content) {
	case detector.PostLoginAppOnlyError:
		s.note("app_error", attempt, "app-only error with proxy: "+p.Server)
		return OutcomeAppOnlyError, nil, ""
	case detector.PostLoginBlank:
		s.note("blank_page", attempt, "blank page with proxy: "+p.Server)
		return OutcomeBlankPage, nil, ""
	}

	record := extractProduct(page, p.Server)
	s.screenshot(page, "product_page", attempt)
	if s.artifacts != nil {
		if _, err := s.artifacts.SaveProduct(attempt, record); err != nil {
			s.logger.Warn("saving product artifact", "error", err)
		}
	}

	return OutcomeSuccess, record, ""
}

// ScrapeDirect is the HTTP front-end path: one session, no rotation. A
// displayed challenge still goes through the wait protocol; login is not
// attempted because the endpoint targets already-public product pages.
func (s *Service) ScrapeDirect(ctx context.Context, targetURL string) (*models.ProductRecord, error) {
	var p proxy.Config
	if s.opts.DirectProxy != nil {
		p = *s.opts.DirectProxy
	}

	sess, err := s.launcher.Launch(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("launching session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn("closing session", "error", err)
		}
	}()

	page := sess.Page()

	if err := page.Goto(targetURL, s.opts.NavTimeout); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", targetURL, err)
	}

	if s.opts.PostNavSettle > 0 {
		pacing.Sleep(s.opts.PostNavSettle, s.opts.PostNavSettle)
	}

	if existsAny(page, captcha.MarkerSelectors) {
		verdict, err := s.captcha.Resolve(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("captcha wait: %w", err)
		}
		if verdict == captcha.VerdictFailed {
			return nil, errors.New("captcha failed: received error page")
		}
	}

	return extractProduct(page, p.Server), nil
}

func (s *Service) notify(ctx context.Context, runID, targetURL string, res models.AttemptResult) {
	for _, sink := range s.sinks {
		sink.AttemptFinished(ctx, runID, targetURL, res)
	}
}

func (s *Service) note(name string, attempt int, text string) {
	if s.artifacts == nil {
		return
	}
	if err := s.artifacts.SaveNote(name, attempt, text); err != nil {
		s.logger.Warn("saving note artifact", "name", name, "error", err)
	}
}

func (s *Service) screenshot(page driver.Page, name string, attempt int) {
	if s.artifacts == nil {
		return
	}
	if err := page.Screenshot(s.artifacts.ScreenshotPath(name, attempt)); err != nil {
		s.logger.Debug("screenshot failed", "name", name, "error", err)
	}
}

func existsAny(page driver.Page, selectors []string) bool {
	for _, sel := range selectors {
		if page.Exists(sel) {
			return true
		}
	}
	return false
}
