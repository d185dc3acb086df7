package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session records one bounded review sitting. EndTime is zero while the
// session is still active; only ended sessions enter history.
type Session struct {
	ID             string    `json:"id"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Subject        string    `json:"subject"` // empty means all subjects
	CardsReviewed  int       `json:"cardsReviewed"`
	CorrectCount   int       `json:"correctCount"`
	AverageQuality float64   `json:"averageQuality"`
}

// NewSession creates an active session starting at the given time,
// optionally scoped to a subject.
func NewSession(start time.Time, subject string) Session {
	return Session{
		ID:        uuid.NewString(),
		StartTime: start,
		Subject:   subject,
	}
}

// Active reports whether the session has not been ended yet.
func (s Session) Active() bool {
	return s.EndTime.IsZero()
}

// RecordReview folds one review into the session aggregates. quality is
// assumed to be already validated by the scheduler.
func (s *Session) RecordReview(quality int) {
	s.AverageQuality = (s.AverageQuality*float64(s.CardsReviewed) + float64(quality)) / float64(s.CardsReviewed+1)
	s.CardsReviewed++
	if quality >= 3 {
		s.CorrectCount++
	}
}

// ImportCard is the shape supplied by content catalogs for bulk import.
// Front and back are opaque to the scheduler.
type ImportCard struct {
	ID      string `json:"id"`
	Front   string `json:"front"`
	Back    string `json:"back"`
	Subject string `json:"subject"`
}
