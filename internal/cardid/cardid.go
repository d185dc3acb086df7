package cardid

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/medrecall/medrecall/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each
// field before joining them.
func Normalize(card domain.ImportCard) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	front := normalizePart(card.Front)
	back := normalizePart(card.Back)
	subject := normalizePart(card.Subject)

	// Joined with newlines so fields can never run together, e.g. a front
	// ending in "heart" and a back starting with "rate".
	return strings.Join([]string{front, back, subject}, "\n")
}

// Hash normalizes the card's content and returns its SHA-256 hash as a hex
// string. The same fact imported twice always maps to the same id.
func Hash(card domain.ImportCard) string {
	normalized := Normalize(card)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
