package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

var errProvider = apperrors.New(apperrors.CodeSummarize, "provider failed")

func TestBreakerStartsClosed(t *testing.T) {
	b := NewBreaker(DefaultConfig())
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed", b.State())
	}
	if err := b.Allow(); err != nil {
		t.Errorf("Allow() = %v, want nil", err)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(Config{Threshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		b.Failure()
	}

	if b.State() != Open {
		t.Errorf("State() = %v, want Open after 3 failures", b.State())
	}
	if err := b.Allow(); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(Config{Threshold: 3, ResetTimeout: time.Minute})

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed (success should reset count)", b.State())
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenSuccesses: 1})

	b.Failure()
	if b.State() != Open {
		t.Fatalf("State() = %v, want Open", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Allow(); err != nil {
		t.Errorf("Allow() after reset timeout = %v, want nil", err)
	}
	if b.State() != HalfOpen {
		t.Errorf("State() = %v, want HalfOpen", b.State())
	}

	b.Success()
	if b.State() != Closed {
		t.Errorf("State() = %v, want Closed after half-open success", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(Config{Threshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenSuccesses: 1})

	b.Failure()
	time.Sleep(20 * time.Millisecond)
	_ = b.Allow() // transitions to half-open

	b.Failure()
	if b.State() != Open {
		t.Errorf("State() = %v, want Open after half-open failure", b.State())
	}
}

func TestBreakerExecute(t *testing.T) {
	b := NewBreaker(Config{Threshold: 2, ResetTimeout: time.Minute})

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute() = %v, want nil", err)
	}

	_ = b.Execute(func() error { return errProvider })
	_ = b.Execute(func() error { return errProvider })

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Execute() after trip = %v, want ErrOpen", err)
	}
}

func TestExecuteWithResult(t *testing.T) {
	b := NewBreaker(DefaultConfig())

	got, err := ExecuteWithResult(b, func() (string, error) {
		return "summary text", nil
	})
	if err != nil || got != "summary text" {
		t.Errorf("ExecuteWithResult() = %q, %v", got, err)
	}

	_, err = ExecuteWithResult(b, func() (string, error) {
		return "", errProvider
	})
	if !errors.Is(err, errProvider) {
		t.Errorf("ExecuteWithResult() error = %v, want provider error", err)
	}
}

func TestBreakerHook(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	b := NewBreaker(Config{Threshold: 1, ResetTimeout: time.Minute}).WithHook(func(from, to State) {
		mu.Lock()
		transitions = append(transitions, from.String()+"->"+to.String())
		mu.Unlock()
	})

	b.Failure()

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}

func TestSummarizerConfig(t *testing.T) {
	cfg := SummarizerConfig()
	if cfg.Threshold != SummarizerThreshold {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, SummarizerThreshold)
	}
	if cfg.HalfOpenSuccesses != SummarizerHalfOpenSuccesses {
		t.Errorf("HalfOpenSuccesses = %d, want %d", cfg.HalfOpenSuccesses, SummarizerHalfOpenSuccesses)
	}
}
