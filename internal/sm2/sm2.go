// Package sm2 implements the SM-2 spaced-repetition update rule.
//
// Review is a pure function from (card state, quality, settings, now) to the
// next card state. It reads no globals; the caller supplies the clock, which
// keeps scheduling decisions reproducible in tests.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/medrecall/medrecall/internal/domain"
)

// ErrInvalidQuality is returned when a grade outside [0, 5] is submitted.
// The card state is left untouched; clamping would silently corrupt the
// schedule.
var ErrInvalidQuality = errors.New("sm2: quality out of range [0, 5]")

// MinEaseFactor is the floor the ease factor is clamped to.
const MinEaseFactor = 1.3

// secondInterval is the fixed interval, in days, for a card's second
// successful review. Standard SM-2; independent of settings.
const secondInterval = 6

// Review applies one review with the given quality to the card and returns
// the updated copy. The ease factor is adjusted on every review, including
// lapses: it tracks felt difficulty even when the repetition counter resets.
func Review(card domain.Card, quality Quality, settings Settings, now time.Time) (domain.Card, error) {
	if !quality.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}
	settings = settings.Normalize()

	q := float64(quality)
	ef := card.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	card.EaseFactor = ef
	card.TotalReviews++

	if quality.Success() {
		card.CorrectReviews++
		card.Streak++
		switch card.Repetition {
		case 0:
			card.Interval = settings.GraduatingInterval
		case 1:
			card.Interval = secondInterval
		default:
			card.Interval = int(math.Round(float64(card.Interval) * ef * settings.IntervalModifier))
		}
		if quality == QualityPerfect {
			card.Interval = int(math.Round(float64(card.Interval) * settings.EasyBonus))
		}
		card.Repetition++
	} else {
		card.Lapses++
		card.Streak = 0
		card.Repetition = 0
		card.Interval = settings.LapseInterval
	}

	if card.Interval > MaxInterval {
		card.Interval = MaxInterval
	}

	card.LastReview = now
	card.NextReview = now.Add(time.Duration(card.Interval) * 24 * time.Hour)
	return card, nil
}
