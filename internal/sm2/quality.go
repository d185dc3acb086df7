package sm2

import "fmt"

// Quality grades a single recall attempt on the standard SM-2 scale.
// Anything below QualityCorrectHard counts as a lapse.
type Quality int

const (
	QualityBlackout    Quality = 0 // forgot completely
	QualityWrong       Quality = 1 // incorrect, recognized on seeing the answer
	QualityWrongEasy   Quality = 2 // incorrect, but the answer seemed easy on review
	QualityCorrectHard Quality = 3 // correct with significant difficulty
	QualityCorrect     Quality = 4 // correct after hesitation
	QualityPerfect     Quality = 5 // correct with no hesitation
)

var qualityNames = [...]string{
	QualityBlackout:    "blackout",
	QualityWrong:       "wrong",
	QualityWrongEasy:   "wrong-easy",
	QualityCorrectHard: "hard",
	QualityCorrect:     "good",
	QualityPerfect:     "perfect",
}

// IsValid reports whether q is within the accepted [0, 5] range.
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// Success reports whether q counts as a successful recall.
func (q Quality) Success() bool {
	return q >= QualityCorrectHard
}

// String returns a short name for the grade, or "Quality(n)" for
// out-of-range values.
func (q Quality) String() string {
	if q.IsValid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}
