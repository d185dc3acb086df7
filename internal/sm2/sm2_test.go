package sm2

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/medrecall/medrecall/internal/domain"
)

var testNow = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestReviewNewCardGood(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "anatomy")

	updated, err := Review(card, QualityCorrect, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}

	// quality 4: delta = 0.1 - 1*(0.08 + 1*0.02) = 0, so ease is unchanged.
	if math.Abs(updated.EaseFactor-2.5) > 1e-9 {
		t.Errorf("Expected ease factor 2.5, but got %v", updated.EaseFactor)
	}
	if updated.Repetition != 1 {
		t.Errorf("Expected repetition 1, but got %d", updated.Repetition)
	}
	if updated.Interval != DefaultGraduatingInterval {
		t.Errorf("Expected interval %d, but got %d", DefaultGraduatingInterval, updated.Interval)
	}
	if updated.TotalReviews != 1 || updated.CorrectReviews != 1 || updated.Streak != 1 {
		t.Errorf("Expected counters 1/1/1, but got %d/%d/%d",
			updated.TotalReviews, updated.CorrectReviews, updated.Streak)
	}
	if !updated.LastReview.Equal(testNow) {
		t.Errorf("Expected last review %v, but got %v", testNow, updated.LastReview)
	}
	if want := testNow.Add(24 * time.Hour); !updated.NextReview.Equal(want) {
		t.Errorf("Expected next review %v, but got %v", want, updated.NextReview)
	}
}

func TestReviewSecondReviewEasy(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "anatomy")

	first, err := Review(card, QualityCorrect, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("first Review() returned an unexpected error: %v", err)
	}
	second, err := Review(first, QualityPerfect, DefaultSettings(), testNow.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("second Review() returned an unexpected error: %v", err)
	}

	// quality 5 adds exactly +0.1 to the ease factor.
	if math.Abs(second.EaseFactor-2.6) > 1e-9 {
		t.Errorf("Expected ease factor 2.6, but got %v", second.EaseFactor)
	}
	// repetition 1 forces the fixed 6-day interval, then the easy bonus
	// applies: round(6 * 1.3) = 8.
	if second.Interval != 8 {
		t.Errorf("Expected interval 8, but got %d", second.Interval)
	}
	if second.Repetition != 2 {
		t.Errorf("Expected repetition 2, but got %d", second.Repetition)
	}
}

func TestReviewLapseAfterMaturity(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "anatomy")
	card.Repetition = 5
	card.Interval = 40
	card.EaseFactor = 2.1
	card.Streak = 5
	card.TotalReviews = 5
	card.CorrectReviews = 5

	updated, err := Review(card, QualityWrong, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}

	if updated.Repetition != 0 {
		t.Errorf("Expected repetition to reset to 0, but got %d", updated.Repetition)
	}
	if updated.Interval != DefaultLapseInterval {
		t.Errorf("Expected interval %d, but got %d", DefaultLapseInterval, updated.Interval)
	}
	if updated.Streak != 0 {
		t.Errorf("Expected streak to reset to 0, but got %d", updated.Streak)
	}
	if updated.Lapses != 1 {
		t.Errorf("Expected 1 lapse, but got %d", updated.Lapses)
	}
	// quality 1: 2.1 + (0.1 - 4*(0.08 + 4*0.02)) = 2.1 - 0.54 = 1.56
	if math.Abs(updated.EaseFactor-1.56) > 1e-9 {
		t.Errorf("Expected ease factor 1.56, but got %v", updated.EaseFactor)
	}
	if updated.CorrectReviews != 5 || updated.TotalReviews != 6 {
		t.Errorf("Expected 5 correct of 6 total, but got %d of %d",
			updated.CorrectReviews, updated.TotalReviews)
	}
}

func TestReviewEaseFactorFloor(t *testing.T) {
	for _, startEase := range []float64{1.3, 1.5, 2.0, 2.5, 3.0} {
		for q := QualityBlackout; q <= QualityPerfect; q++ {
			card := domain.NewCard("c1", "front", "back", "")
			card.EaseFactor = startEase
			card.Repetition = 3
			card.Interval = 10

			updated, err := Review(card, q, DefaultSettings(), testNow)
			if err != nil {
				t.Fatalf("Review(ease=%v, q=%d) returned an unexpected error: %v", startEase, q, err)
			}
			if updated.EaseFactor < MinEaseFactor {
				t.Errorf("Ease factor %v below floor for start %v, quality %d",
					updated.EaseFactor, startEase, q)
			}
		}
	}
}

func TestReviewLapseResetsRepetition(t *testing.T) {
	for q := QualityBlackout; q < QualityCorrectHard; q++ {
		card := domain.NewCard("c1", "front", "back", "")
		card.Repetition = 7
		card.Streak = 7
		card.Interval = 120

		updated, err := Review(card, q, DefaultSettings(), testNow)
		if err != nil {
			t.Fatalf("Review(q=%d) returned an unexpected error: %v", q, err)
		}
		if updated.Repetition != 0 || updated.Streak != 0 {
			t.Errorf("Quality %d should reset repetition and streak, got %d/%d",
				q, updated.Repetition, updated.Streak)
		}
	}
}

func TestReviewIntervalCap(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "")
	card.Repetition = 10
	card.Interval = 300
	card.EaseFactor = 2.5

	updated, err := Review(card, QualityPerfect, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	if updated.Interval != MaxInterval {
		t.Errorf("Expected interval capped at %d, but got %d", MaxInterval, updated.Interval)
	}
	if want := testNow.Add(MaxInterval * 24 * time.Hour); !updated.NextReview.Equal(want) {
		t.Errorf("Expected next review %v, but got %v", want, updated.NextReview)
	}
}

func TestReviewMonotonicGrowth(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "")
	card.Repetition = 2
	card.Interval = 6
	card.EaseFactor = 2.5

	now := testNow
	prev := card.Interval
	for i := 0; i < 10; i++ {
		updated, err := Review(card, QualityCorrect, DefaultSettings(), now)
		if err != nil {
			t.Fatalf("Review() returned an unexpected error: %v", err)
		}
		if updated.Interval < prev {
			t.Fatalf("Interval shrank from %d to %d on review %d", prev, updated.Interval, i+1)
		}
		prev = updated.Interval
		card = updated
		now = updated.NextReview
	}
}

func TestReviewInvalidQuality(t *testing.T) {
	for _, q := range []Quality{-1, 6, 42} {
		card := domain.NewCard("c1", "front", "back", "")
		_, err := Review(card, q, DefaultSettings(), testNow)
		if !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("Expected ErrInvalidQuality for quality %d, but got %v", q, err)
		}
	}
}

func TestReviewIsDeterministic(t *testing.T) {
	card := domain.NewCard("c1", "front", "back", "")
	card.Repetition = 3
	card.Interval = 15
	card.EaseFactor = 2.2

	a, err := Review(card, QualityCorrectHard, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	b, err := Review(card, QualityCorrectHard, DefaultSettings(), testNow)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("Expected identical results for identical inputs, got %+v and %+v", a, b)
	}
}

func TestSettingsNormalize(t *testing.T) {
	var zero Settings
	s := zero.Normalize()

	if s.EasyBonus != DefaultEasyBonus {
		t.Errorf("Expected easy bonus %v, but got %v", DefaultEasyBonus, s.EasyBonus)
	}
	if s.IntervalModifier != DefaultIntervalModifier {
		t.Errorf("Expected interval modifier %v, but got %v", DefaultIntervalModifier, s.IntervalModifier)
	}
	if s.LapseInterval != DefaultLapseInterval {
		t.Errorf("Expected lapse interval %d, but got %d", DefaultLapseInterval, s.LapseInterval)
	}
	if s.GraduatingInterval != DefaultGraduatingInterval {
		t.Errorf("Expected graduating interval %d, but got %d", DefaultGraduatingInterval, s.GraduatingInterval)
	}

	custom := Settings{EasyBonus: 1.5, LapseInterval: 3}.Normalize()
	if custom.EasyBonus != 1.5 || custom.LapseInterval != 3 {
		t.Errorf("Normalize overwrote explicit values: %+v", custom)
	}
}

func TestQualityString(t *testing.T) {
	if got := QualityPerfect.String(); got != "perfect" {
		t.Errorf("Expected 'perfect', but got '%s'", got)
	}
	if got := Quality(9).String(); got != "Quality(9)" {
		t.Errorf("Expected 'Quality(9)', but got '%s'", got)
	}
}
