package deck

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/medrecall/medrecall/internal/domain"
	"github.com/medrecall/medrecall/internal/sm2"
)

func TestSessionAccounting(t *testing.T) {
	d, now := newTestDeck(sm2.Settings{})
	importCards(d,
		domain.ImportCard{ID: "a", Front: "f", Back: "b", Subject: "s"},
		domain.ImportCard{ID: "b", Front: "f", Back: "b", Subject: "s"},
		domain.ImportCard{ID: "c", Front: "f", Back: "b", Subject: "s"},
	)

	if _, err := d.StartSession("s"); err != nil {
		t.Fatalf("StartSession() returned an unexpected error: %v", err)
	}

	qualities := []sm2.Quality{5, 2, 4}
	ids := []string{"a", "b", "c"}
	for i, q := range qualities {
		if _, err := d.Review(ids[i], q); err != nil {
			t.Fatalf("Review() returned an unexpected error: %v", err)
		}
	}

	*now = testNow.Add(20 * time.Minute)
	session := d.EndSession()
	if session == nil {
		t.Fatal("Expected EndSession to return the completed session")
	}

	if session.CardsReviewed != 3 {
		t.Errorf("Expected 3 cards reviewed, but got %d", session.CardsReviewed)
	}
	if session.CorrectCount != 2 {
		t.Errorf("Expected 2 correct, but got %d", session.CorrectCount)
	}
	// mean(5, 2, 4) = 11/3
	if want := 11.0 / 3.0; math.Abs(session.AverageQuality-want) > 1e-9 {
		t.Errorf("Expected average quality %v, but got %v", want, session.AverageQuality)
	}
	if !session.StartTime.Equal(testNow) || !session.EndTime.Equal(testNow.Add(20*time.Minute)) {
		t.Errorf("Unexpected session bounds: %v - %v", session.StartTime, session.EndTime)
	}

	history := d.Sessions()
	if len(history) != 1 || history[0].ID != session.ID {
		t.Errorf("Expected the session in history, but got %v", history)
	}
}

func TestSessionDoubleStart(t *testing.T) {
	d, _ := newTestDeck(sm2.Settings{})

	first, err := d.StartSession("")
	if err != nil {
		t.Fatalf("StartSession() returned an unexpected error: %v", err)
	}
	if _, err := d.StartSession(""); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Expected ErrSessionActive, but got %v", err)
	}

	// The original session is still the active one.
	active, ok := d.ActiveSession()
	if !ok || active.ID != first.ID {
		t.Errorf("Expected the first session to remain active, but got %v (ok=%v)", active, ok)
	}
}

func TestEndSessionWithoutActive(t *testing.T) {
	d, _ := newTestDeck(sm2.Settings{})
	if session := d.EndSession(); session != nil {
		t.Errorf("Expected nil from EndSession with no active session, but got %+v", session)
	}
	if len(d.Sessions()) != 0 {
		t.Errorf("Expected empty history")
	}
}

func TestReviewOutsideSessionIsNotRecorded(t *testing.T) {
	d, _ := newTestDeck(sm2.Settings{})
	importCards(d, domain.ImportCard{ID: "a", Front: "f", Back: "b", Subject: "s"})

	if _, err := d.Review("a", sm2.QualityCorrect); err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}

	if _, err := d.StartSession(""); err != nil {
		t.Fatalf("StartSession() returned an unexpected error: %v", err)
	}
	session := d.EndSession()
	if session.CardsReviewed != 0 {
		t.Errorf("Expected 0 cards reviewed in the session, but got %d", session.CardsReviewed)
	}
}

func TestRestoreSkipsAbandonedSessions(t *testing.T) {
	d, _ := newTestDeck(sm2.Settings{})

	completed := domain.NewSession(testNow.Add(-48*time.Hour), "")
	completed.EndTime = testNow.Add(-47 * time.Hour)
	abandoned := domain.NewSession(testNow.Add(-24*time.Hour), "")

	d.Restore(nil, []domain.Session{completed, abandoned})

	history := d.Sessions()
	if len(history) != 1 || history[0].ID != completed.ID {
		t.Errorf("Expected only the completed session in history, but got %v", history)
	}
}
