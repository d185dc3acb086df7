package deck

import (
	"math"
	"time"
)

// matureInterval is the interval, in days, at which a card counts as mature.
const matureInterval = 21

// Stats is the reporting snapshot for a deck or one of its subjects.
type Stats struct {
	TotalCards    int `json:"totalCards"`
	NewCards      int `json:"newCards"`      // repetition == 0
	DueCards      int `json:"dueCards"`      // due and repetition > 0
	LearningCards int `json:"learningCards"` // repetition > 0, interval < 21
	MatureCards   int `json:"matureCards"`   // repetition > 0, interval >= 21

	AverageEaseFactor float64 `json:"averageEaseFactor"`
	RetentionRate     float64 `json:"retentionRate"`
	TodayReviews      int     `json:"todayReviews"`
	ForecastNext7Days [7]int  `json:"forecastNext7Days"`
	StreakDays        int     `json:"streakDays"`
}

// Stats computes the reporting snapshot, optionally scoped to a subject.
// The clock is read once; every derived figure uses the same now.
func (d *Deck) Stats(subject string) Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	today := startOfDay(now)

	var st Stats
	var easeSum float64
	var totalReviews, correctReviews int

	for _, c := range d.cards {
		if subject != "" && c.Subject != subject {
			continue
		}
		st.TotalCards++
		easeSum += c.EaseFactor
		totalReviews += c.TotalReviews
		correctReviews += c.CorrectReviews

		if c.Repetition == 0 {
			st.NewCards++
		} else if c.Interval < matureInterval {
			st.LearningCards++
		} else {
			st.MatureCards++
		}
		if c.Repetition > 0 && !c.NextReview.After(now) {
			st.DueCards++
		}

		if !c.LastReview.IsZero() && sameDay(c.LastReview, today) {
			st.TodayReviews++
		}
		if c.Repetition > 0 {
			days := daysBetween(today, startOfDay(c.NextReview.In(now.Location())))
			if days >= 0 && days < len(st.ForecastNext7Days) {
				st.ForecastNext7Days[days]++
			}
		}
	}

	if st.TotalCards > 0 {
		st.AverageEaseFactor = easeSum / float64(st.TotalCards)
	} else {
		st.AverageEaseFactor = 2.5
	}
	if totalReviews > 0 {
		st.RetentionRate = 100 * float64(correctReviews) / float64(totalReviews)
	}
	st.StreakDays = d.streakDaysLocked(subject, today)
	return st
}

// streakDaysLocked counts consecutive calendar days, walking backward from
// today, on which at least one completed session in scope was started.
func (d *Deck) streakDaysLocked(subject string, today time.Time) int {
	days := make(map[time.Time]bool, len(d.history))
	for _, s := range d.history {
		if subject != "" && s.Subject != subject {
			continue
		}
		days[startOfDay(s.StartTime)] = true
	}

	streak := 0
	for day := today; days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, both at local midnight.
// Rounding absorbs DST-shortened and -lengthened days.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func sameDay(t, dayStart time.Time) bool {
	return startOfDay(t.In(dayStart.Location())).Equal(dayStart)
}
