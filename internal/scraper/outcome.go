package scraper

// Outcome is the terminal classification of one attempt. Exactly one tag per
// attempt; it drives the retry-or-stop decision.
type Outcome int

const (
	OutcomeBlocked Outcome = iota
	OutcomeLoginFailed
	OutcomeCaptchaSuccess
	OutcomeCaptchaError
	OutcomeAppOnlyError
	OutcomeBlankPage
	OutcomeTimeout
	OutcomeUnexpectedError
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBlocked:
		return "blocked"
	case OutcomeLoginFailed:
		return "login_failed"
	case OutcomeCaptchaSuccess:
		return "captcha_success"
	case OutcomeCaptchaError:
		return "captcha_error"
	case OutcomeAppOnlyError:
		return "app_only_error"
	case OutcomeBlankPage:
		return "blank_page"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeUnexpectedError:
		return "unexpected_error"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Retryable reports whether the attempt loop should rotate to another proxy
// and try again. Everything except a success is retryable; the two fatal
// conditions (empty pool, attempt budget exhausted) never reach an Outcome.
func (o Outcome) Retryable() bool {
	return o != OutcomeSuccess
}
