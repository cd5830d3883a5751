package captcha

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type stubPage struct {
	content string
	err     error
	reads   int
}

func (s *stubPage) Content() (string, error) {
	s.reads++
	return s.content, s.err
}

func TestResolveSolved(t *testing.T) {
	p := NewProtocol(time.Millisecond, slog.Default())
	page := &stubPage{content: "<html><body>product page, nothing wrong here</body></html>"}

	v, err := p.Resolve(context.Background(), page)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if v != VerdictSolved {
		t.Errorf("Resolve() = %v, want VerdictSolved", v)
	}
	// Single wait, single read — no polling.
	if page.reads != 1 {
		t.Errorf("page read %d times, want 1", page.reads)
	}
}

func TestResolveErrorTexts(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"page cannot display zh", "頁面無法顯示"},
		{"page cannot display en", "Page cannot be displayed"},
		{"verification failed", "驗證資訊失敗"},
		{"logged out", "some page chrome 登出 footer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProtocol(time.Millisecond, slog.Default())
			v, err := p.Resolve(context.Background(), &stubPage{content: tt.content})
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if v != VerdictFailed {
				t.Errorf("Resolve() = %v, want VerdictFailed", v)
			}
		})
	}
}

func TestResolveContentReadFailure(t *testing.T) {
	p := NewProtocol(time.Millisecond, slog.Default())
	page := &stubPage{err: errors.New("target closed")}

	v, err := p.Resolve(context.Background(), page)
	if err == nil {
		t.Fatal("Resolve() with failing page read returned nil error")
	}
	if v != VerdictFailed {
		t.Errorf("Resolve() = %v, want VerdictFailed", v)
	}
}

func TestResolveCancelledDuringWait(t *testing.T) {
	p := NewProtocol(time.Hour, slog.Default())
	page := &stubPage{content: "irrelevant"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Resolve(ctx, page)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Resolve() did not return promptly on cancellation")
	}
	if page.reads != 0 {
		t.Errorf("page read %d times after cancellation, want 0", page.reads)
	}
}

func TestNewProtocolDefaultBudget(t *testing.T) {
	p := NewProtocol(0, slog.Default())
	if p.wait != DefaultWait {
		t.Errorf("wait = %v, want %v", p.wait, DefaultWait)
	}
}
