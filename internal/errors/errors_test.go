package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := Newf(CodeJoin, "join failed for %s", "meet.google.com/abc").WithMetadata("url", "meet.google.com/abc")

	if !strings.Contains(err.Error(), "[JOIN]") {
		t.Errorf("error string missing code: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "join failed") {
		t.Errorf("error string missing message: %s", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeStream, "transcription send failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("error string should include cause: %s", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"direct", New(CodeConfig, "missing key"), CodeConfig},
		{"wrapped in fmt", Wrap(New(CodeTimeout, "deadline"), CodeStream, "outer"), CodeStream},
		{"plain error", stderrors.New("plain"), CodeUnknown},
		{"nil cause chain", New(CodeCancelled, "stop"), CodeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeRateLimited, "429")) {
		t.Error("rate limited should be retryable")
	}
	if !IsRetryable(New(CodeUnavailable, "down")) {
		t.Error("unavailable should be retryable")
	}
	if IsRetryable(New(CodeConfig, "missing key")) {
		t.Error("config errors should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}
