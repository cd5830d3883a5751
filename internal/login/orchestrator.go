// Package login drives the identity-provider popup through the
// email/password/consent steps. The orchestrator is a small state machine;
// it never lets a fault escape its boundary — every failure mode collapses
// into a terminal Failed state with a reason code the attempt loop can act
// on.
package login

import (
	"log/slog"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/driver"
	"github.com/maltedev/shopee-product-scraper/internal/pacing"
)

// ButtonSelectors locate the third-party-login affordance on the host page.
// Their presence doubles as the block detector's expected-marker signal.
var ButtonSelectors = []string{
	`button:has-text("Google")`,
	`.google-login`,
	`.social-white-google-png`,
	`.social-login svg[title="Google"]`,
	`div[aria-label="Continue with Google"]`,
	`img[alt*="Google"]`,
	`a[href*="accounts.google.com"]`,
}

var emailFieldSelector = `input[type="email"]`

var emailNextSelectors = []string{
	`div[id="identifierNext"]`,
	`button:has-text("Next")`,
}

var passwordFieldSelectors = []string{
	`input[type="password"][name="password"]`,
	`input[aria-label="Enter your password"]`,
	`input[type="password"]`,
}

var passwordNextSelectors = []string{
	`div[id="passwordNext"]`,
	`button:has-text("Next")`,
}

// consentSelectors are the known consent affordances. Absence of all of them
// is normal — the consent screen is not always shown.
var consentSelectors = []string{
	`button:has-text("Continue")`,
	`button:has-text("繼續")`,
	`[role="button"]:has-text("Continue")`,
	`div[role="button"]:has-text("Continue")`,
	`div[jsname="Njthtb"]`,
	`button[jsname="LgbsSe"]`,
}

// State tracks progress through the login flow.
type State int

const (
	StateInit State = iota
	StatePopupOpened
	StateEmailEntered
	StatePasswordEntered
	StateConsentHandled
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePopupOpened:
		return "popup_opened"
	case StateEmailEntered:
		return "email_entered"
	case StatePasswordEntered:
		return "password_entered"
	case StateConsentHandled:
		return "consent_handled"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reason explains a terminal Failed state.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoPopup         Reason = "no_popup"
	ReasonManualRequired  Reason = "manual_required"
	ReasonNoPasswordField Reason = "no_password_field"
	ReasonTimeout         Reason = "timeout"
	ReasonTypeFailed      Reason = "type_failed"
)

// Result is the orchestrator's boolean-equivalent outcome.
type Result struct {
	State  State
	Reason Reason
}

func (r Result) OK() bool {
	return r.State == StateDone
}

func failed(reason Reason) Result {
	return Result{State: StateFailed, Reason: reason}
}

// Timeouts are the per-step wait budgets. Every step has its own bound;
// there is no global login deadline.
type Timeouts struct {
	// Popup is how long to wait for the provider popup after clicking
	// the login affordance.
	Popup time.Duration
	// Field is the bound on each credential-field appearance wait.
	Field time.Duration
	// Manual is the extended wait granted for by-hand completion when no
	// credentials are configured.
	Manual time.Duration
	// SettleMin/SettleMax bound the randomized pauses between steps.
	SettleMin time.Duration
	SettleMax time.Duration
	// KeyMin/KeyMax bound the randomized inter-keystroke delay.
	KeyMin time.Duration
	KeyMax time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Popup:     60 * time.Second,
		Field:     10 * time.Second,
		Manual:    2 * time.Minute,
		SettleMin: 2 * time.Second,
		SettleMax: 4 * time.Second,
		KeyMin:    100 * time.Millisecond,
		KeyMax:    300 * time.Millisecond,
	}
}

type Orchestrator struct {
	email    string
	password string
	timeouts Timeouts
	logger   *slog.Logger
}

// New creates an orchestrator. Empty credentials switch the flow to the
// manual-completion wait.
func New(email, password string, timeouts Timeouts, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		email:    email,
		password: password,
		timeouts: timeouts,
		logger:   logger.With("component", "login"),
	}
}

// Run executes the full login flow against the host page. It returns a
// terminal Result; it never panics past its own boundary.
func (o *Orchestrator) Run(host driver.Page) Result {
	state := StateInit

	buttonSel, found := firstExisting(host, ButtonSelectors)
	if !found {
		o.logger.Warn("login affordance not found on host page")
		return failed(ReasonNoPopup)
	}

	pacing.Sleep(o.timeouts.SettleMin/2, o.timeouts.SettleMax/2)

	popup, err := host.ExpectPopup(func() error {
		return host.Click(buttonSel)
	}, o.timeouts.Popup)
	if err != nil {
		o.logger.Warn("provider popup did not appear", "error", err)
		return failed(ReasonNoPopup)
	}
	state = StatePopupOpened
	o.logger.Info("provider popup opened", "state", state.String())

	pacing.Sleep(o.timeouts.SettleMin, o.timeouts.SettleMax)

	if o.email == "" || o.password == "" {
		// No automated credentials: suspend so an operator can finish
		// the flow by hand, then hand the decision back to the caller.
		o.logger.Info("no credentials configured, waiting for manual completion",
			"wait", o.timeouts.Manual)
		time.Sleep(o.timeouts.Manual)
		return failed(ReasonManualRequired)
	}

	if !popup.WaitFor(emailFieldSelector, o.timeouts.Field) {
		o.logger.Warn("email field did not appear", "state", state.String())
		return failed(ReasonTimeout)
	}

	if err := popup.TypeInto(emailFieldSelector, o.email, o.timeouts.KeyMin, o.timeouts.KeyMax); err != nil {
		o.logger.Warn("typing email failed", "error", err)
		return failed(ReasonTypeFailed)
	}
	clickAny(popup, emailNextSelectors)
	state = StateEmailEntered
	o.logger.Info("email entered", "state", state.String())

	pacing.Sleep(o.timeouts.SettleMin, o.timeouts.SettleMax)

	pwSel, found := firstWaiting(popup, passwordFieldSelectors, o.timeouts.Field)
	if !found {
		o.logger.Warn("password field not found", "state", state.String())
		return failed(ReasonNoPasswordField)
	}

	if err := popup.TypeInto(pwSel, o.password, o.timeouts.KeyMin, o.timeouts.KeyMax); err != nil {
		o.logger.Warn("typing password failed", "error", err)
		return failed(ReasonTypeFailed)
	}
	clickAny(popup, passwordNextSelectors)
	state = StatePasswordEntered
	o.logger.Info("password entered", "state", state.String())

	pacing.Sleep(o.timeouts.SettleMin, o.timeouts.SettleMax)

	// Consent is best-effort: the screen may not be shown at all, and a
	// missed click here does not invalidate an otherwise complete login.
	if popup.ActivateAny(consentSelectors) {
		o.logger.Info("consent affordance activated")
	} else {
		o.logger.Info("no consent affordance found")
	}
	state = StateConsentHandled

	pacing.Sleep(o.timeouts.SettleMin, o.timeouts.SettleMax)

	state = StateDone
	return Result{State: state, Reason: ReasonNone}
}

// firstExisting returns the first selector currently matching on the page.
func firstExisting(page driver.Page, selectors []string) (string, bool) {
	for _, sel := range selectors {
		if page.Exists(sel) {
			return sel, true
		}
	}
	return "", false
}

// firstWaiting waits for the first selector in the list, giving the full
// budget to the first and an immediate check to the rest.
func firstWaiting(page driver.Page, selectors []string, timeout time.Duration) (string, bool) {
	for i, sel := range selectors {
		if i == 0 {
			if page.WaitFor(sel, timeout) {
				return sel, true
			}
			continue
		}
		if page.Exists(sel) {
			return sel, true
		}
	}
	return "", false
}

// clickAny clicks the first matching selector. Nothing matching is
// tolerated: the provider sometimes advances without the button.
func clickAny(page driver.Page, selectors []string) {
	for _, sel := range selectors {
		if page.Exists(sel) {
			if err := page.Click(sel); err == nil {
				return
			}
		}
	}
}
