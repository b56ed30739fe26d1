package joiner

import (
	"context"
	"testing"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

func TestZoomJoinRequiresInitialize(t *testing.T) {
	z := NewZoom(&config.Config{ZoomDisplayName: "Bot"})

	ok, err := z.Join(context.Background(), "https://zoom.us/j/123456789", "pw")
	if ok {
		t.Error("Join() without browser reported success")
	}
	if !apperrors.IsCode(err, apperrors.CodeJoin) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeJoin)
	}
}

func TestZoomCloseBeforeInitialize(t *testing.T) {
	z := NewZoom(&config.Config{})
	if err := z.Close(context.Background()); err != nil {
		t.Errorf("Close() on unlaunched joiner: %v", err)
	}
	if err := z.Leave(context.Background()); err != nil {
		t.Errorf("Leave() on unlaunched joiner: %v", err)
	}
	if z.InMeeting() {
		t.Error("InMeeting() should be false before any join")
	}
}
