package login

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/driver"
)

// fakePage implements driver.Page for orchestrator tests. Selectors present
// in exists are reported as matching; typed text is recorded per selector.
type fakePage struct {
	exists      map[string]bool
	typed       map[string]string
	clicked     []string
	popup       *fakePage
	popupErr    error
	typeErr     error
	activateHit bool
}

func newFakePage() *fakePage {
	return &fakePage{
		exists: make(map[string]bool),
		typed:  make(map[string]string),
	}
}

func (f *fakePage) Goto(url string, timeout time.Duration) error { return nil }
func (f *fakePage) URL() string                                  { return "https://shopee.tw/x" }
func (f *fakePage) Title() (string, error)                       { return "fake", nil }
func (f *fakePage) Content() (string, error)                     { return "", nil }

func (f *fakePage) Exists(selector string) bool { return f.exists[selector] }

func (f *fakePage) WaitFor(selector string, timeout time.Duration) bool {
	return f.exists[selector]
}

func (f *fakePage) Click(selector string) error {
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakePage) TypeInto(selector, text string, minKeyDelay, maxKeyDelay time.Duration) error {
	if f.typeErr != nil {
		return f.typeErr
	}
	f.typed[selector] = text
	return nil
}

func (f *fakePage) ExpectPopup(trigger func() error, timeout time.Duration) (driver.Page, error) {
	if err := trigger(); err != nil {
		return nil, err
	}
	if f.popupErr != nil {
		return nil, f.popupErr
	}
	return f.popup, nil
}

func (f *fakePage) ActivateAny(selectors []string) bool { return f.activateHit }

func (f *fakePage) TextOf(selector string) (string, bool)    { return "", false }
func (f *fakePage) AttrAll(selector, attr string) []string   { return nil }
func (f *fakePage) Screenshot(path string) error             { return nil }
func (f *fakePage) LastStatus() int                          { return 200 }

// fastTimeouts keep the orchestrator's real sleeps out of test runtime.
func fastTimeouts() Timeouts {
	return Timeouts{
		Popup:  time.Second,
		Field:  time.Millisecond,
		Manual: time.Millisecond,
	}
}

func hostWithPopup(popup *fakePage) *fakePage {
	host := newFakePage()
	host.exists[`.google-login`] = true
	host.popup = popup
	return host
}

func TestRunHappyPath(t *testing.T) {
	popup := newFakePage()
	popup.exists[emailFieldSelector] = true
	popup.exists[passwordFieldSelectors[0]] = true
	popup.exists[emailNextSelectors[0]] = true
	popup.exists[passwordNextSelectors[0]] = true
	popup.activateHit = true

	host := hostWithPopup(popup)

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if !res.OK() {
		t.Fatalf("Run() = %+v, want Done", res)
	}
	if popup.typed[emailFieldSelector] != "user@example.com" {
		t.Errorf("email not typed, typed map: %v", popup.typed)
	}
	if popup.typed[passwordFieldSelectors[0]] != "hunter2" {
		t.Errorf("password not typed, typed map: %v", popup.typed)
	}
}

func TestRunConsentAbsentStillDone(t *testing.T) {
	popup := newFakePage()
	popup.exists[emailFieldSelector] = true
	popup.exists[passwordFieldSelectors[2]] = true
	popup.activateHit = false // no consent affordance anywhere

	host := hostWithPopup(popup)

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	if res := o.Run(host); !res.OK() {
		t.Fatalf("Run() without consent screen = %+v, want Done", res)
	}
}

func TestRunNoLoginAffordance(t *testing.T) {
	host := newFakePage() // nothing matches

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonNoPopup {
		t.Fatalf("Run() = %+v, want Failed(no_popup)", res)
	}
}

func TestRunPopupNeverAppears(t *testing.T) {
	host := newFakePage()
	host.exists[`.google-login`] = true
	host.popupErr = errors.New("timeout waiting for popup")

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonNoPopup {
		t.Fatalf("Run() = %+v, want Failed(no_popup)", res)
	}
}

func TestRunManualRequiredWhenNoCredentials(t *testing.T) {
	popup := newFakePage()
	host := hostWithPopup(popup)

	o := New("", "", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonManualRequired {
		t.Fatalf("Run() = %+v, want Failed(manual_required)", res)
	}
	// Nothing should have been typed on the operator's behalf.
	if len(popup.typed) != 0 {
		t.Errorf("credentials typed during manual flow: %v", popup.typed)
	}
}

func TestRunNoPasswordField(t *testing.T) {
	popup := newFakePage()
	popup.exists[emailFieldSelector] = true

	host := hostWithPopup(popup)

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonNoPasswordField {
		t.Fatalf("Run() = %+v, want Failed(no_password_field)", res)
	}
}

func TestRunEmailFieldTimeout(t *testing.T) {
	popup := newFakePage() // email field never appears
	host := hostWithPopup(popup)

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonTimeout {
		t.Fatalf("Run() = %+v, want Failed(timeout)", res)
	}
}

func TestRunTypeFailure(t *testing.T) {
	popup := newFakePage()
	popup.exists[emailFieldSelector] = true
	popup.typeErr = errors.New("element detached")

	host := hostWithPopup(popup)

	o := New("user@example.com", "hunter2", fastTimeouts(), slog.Default())
	res := o.Run(host)

	if res.State != StateFailed || res.Reason != ReasonTypeFailed {
		t.Fatalf("Run() = %+v, want Failed(type_failed)", res)
	}
}
