package domain

import "time"

// Card represents a single front/back fact and its scheduling state.
// The scheduling fields are owned by the sm2 package; nothing else
// writes them.
type Card struct {
	ID      string `json:"id"`
	Front   string `json:"front"`
	Back    string `json:"back"`
	Subject string `json:"subject"`

	Repetition int       `json:"repetition"`
	EaseFactor float64   `json:"easeFactor"`
	Interval   int       `json:"interval"` // days until the next review
	NextReview time.Time `json:"nextReview"`
	LastReview time.Time `json:"lastReview"`

	TotalReviews   int `json:"totalReviews"`
	CorrectReviews int `json:"correctReviews"`
	Streak         int `json:"streak"`
	Lapses         int `json:"lapses"`
}

// DefaultEaseFactor is the ease assigned to a card that has never been reviewed.
const DefaultEaseFactor = 2.5

// NewCard creates a card with the never-reviewed baseline: all scheduling
// fields zero and the default ease factor. A zero NextReview means the card
// is due immediately.
func NewCard(id, front, back, subject string) Card {
	return Card{
		ID:         id,
		Front:      front,
		Back:       back,
		Subject:    subject,
		EaseFactor: DefaultEaseFactor,
	}
}

// IsNew reports whether the card has never been reviewed.
func (c Card) IsNew() bool {
	return c.Repetition == 0 && c.TotalReviews == 0
}

// IsDue reports whether the card should be reviewed at the given time.
// New cards are always due.
func (c Card) IsDue(now time.Time) bool {
	return c.IsNew() || !c.NextReview.After(now)
}
