package joiner

import (
	"context"
	"testing"

	"github.com/meetscribe/meetscribe/internal/config"
	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

func TestJoinRequiresInitialize(t *testing.T) {
	m := NewMeet(&config.Config{MeetDisplayName: "Bot"})

	ok, err := m.Join(context.Background(), "https://meet.google.com/abc-defg-hij", "")
	if ok {
		t.Error("Join() without browser reported success")
	}
	if !apperrors.IsCode(err, apperrors.CodeJoin) {
		t.Errorf("error = %v, want %s", err, apperrors.CodeJoin)
	}
}

func TestCloseBeforeInitialize(t *testing.T) {
	m := NewMeet(&config.Config{})
	if err := m.Close(context.Background()); err != nil {
		t.Errorf("Close() on unlaunched joiner: %v", err)
	}
	if err := m.Leave(context.Background()); err != nil {
		t.Errorf("Leave() on unlaunched joiner: %v", err)
	}
	if m.InMeeting() {
		t.Error("InMeeting() should be false before any join")
	}
}
