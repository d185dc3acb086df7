package sm2

import "time"

// Default settings values.
const (
	DefaultEasyBonus          = 1.3
	DefaultIntervalModifier   = 1.0
	DefaultLapseInterval      = 1
	DefaultGraduatingInterval = 1
	DefaultNewCardsPerDay     = 20
	DefaultReviewsPerDay      = 200
)

// MaxInterval caps every computed interval, in days.
const MaxInterval = 365

// Settings holds the global scheduling configuration. The zero value is
// usable: Normalize fills in the documented defaults for any field left
// at zero.
type Settings struct {
	NewCardsPerDay     int             `koanf:"newCardsPerDay"     validate:"min=0"`
	ReviewsPerDay      int             `koanf:"reviewsPerDay"      validate:"min=0"`
	EasyBonus          float64         `koanf:"easyBonus"          validate:"min=1"`
	IntervalModifier   float64         `koanf:"intervalModifier"   validate:"gt=0"`
	LapseInterval      int             `koanf:"lapseInterval"      validate:"min=1"`
	GraduatingInterval int             `koanf:"graduatingInterval" validate:"min=1"`
	LearningSteps      []time.Duration `koanf:"learningSteps"`
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		NewCardsPerDay:     DefaultNewCardsPerDay,
		ReviewsPerDay:      DefaultReviewsPerDay,
		EasyBonus:          DefaultEasyBonus,
		IntervalModifier:   DefaultIntervalModifier,
		LapseInterval:      DefaultLapseInterval,
		GraduatingInterval: DefaultGraduatingInterval,
		LearningSteps:      []time.Duration{time.Minute, 10 * time.Minute},
	}
}

// Normalize returns a copy of s with zero-valued fields replaced by their
// defaults. LearningSteps is informational only; the review update rule
// never consults it.
func (s Settings) Normalize() Settings {
	if s.NewCardsPerDay == 0 {
		s.NewCardsPerDay = DefaultNewCardsPerDay
	}
	if s.ReviewsPerDay == 0 {
		s.ReviewsPerDay = DefaultReviewsPerDay
	}
	if s.EasyBonus == 0 {
		s.EasyBonus = DefaultEasyBonus
	}
	if s.IntervalModifier == 0 {
		s.IntervalModifier = DefaultIntervalModifier
	}
	if s.LapseInterval == 0 {
		s.LapseInterval = DefaultLapseInterval
	}
	if s.GraduatingInterval == 0 {
		s.GraduatingInterval = DefaultGraduatingInterval
	}
	return s
}
