package cardid

import (
	"testing"

	"github.com/medrecall/medrecall/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.ImportCard{
		Front:   "  What is the SA node? \r\n",
		Back:    "The sinoatrial node, the heart's natural pacemaker.",
		Subject: "Cardiology",
	}
	expected := "what is the sa node?\nthe sinoatrial node, the heart's natural pacemaker.\ncardiology"
	normalized := Normalize(card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		card := domain.ImportCard{
			Front:   "F",
			Back:    "B",
			Subject: "S",
		}
		// Hash for "f\nb\ns"
		expectedHash := "e66dd89d8dd87a5bcb4b6c57c3911d3ea37c7daf63e7b1bcd91e249e3799f94f"
		hash := Hash(card)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		card1 := domain.ImportCard{Front: "Test"}
		card2 := domain.ImportCard{Front: "Test"}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected hashes for identical cards to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		card1 := domain.ImportCard{
			Front: "  what is shock? ",
			Back:  "Inadequate tissue perfusion.",
		}
		card2 := domain.ImportCard{
			Front: "What Is Shock?",
			Back:  "Inadequate tissue perfusion.",
		}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		card1 := domain.ImportCard{Front: "Card 1"}
		card2 := domain.ImportCard{Front: "Card 2"}
		if Hash(card1) == Hash(card2) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}
