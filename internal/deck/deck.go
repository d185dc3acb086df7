// Package deck holds the in-memory card store, the due/forecast query layer
// and the session tracker. All operations are plain in-memory computations;
// persistence is the caller's job and happens after an operation returns.
package deck

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/medrecall/medrecall/internal/domain"
	"github.com/medrecall/medrecall/internal/sm2"
)

// Sentinel errors for the deck package. Check with errors.Is.
var (
	ErrCardNotFound  = errors.New("deck: card not found")
	ErrSessionActive = errors.New("deck: a session is already active")
)

// Deck is one card store plus its session history. Multiple independent
// decks can coexist; nothing here is process-global. Methods serialize
// through an internal mutex so a concurrent host (the web server) needs no
// external locking.
type Deck struct {
	mu       sync.Mutex
	cards    map[string]domain.Card
	settings sm2.Settings
	now      func() time.Time

	active  *domain.Session
	history []domain.Session
}

// New creates an empty deck using the given settings and the wall clock.
func New(settings sm2.Settings) *Deck {
	return NewWithClock(settings, time.Now)
}

// NewWithClock creates an empty deck with an injected clock, for hosts and
// tests that need deterministic time.
func NewWithClock(settings sm2.Settings, now func() time.Time) *Deck {
	return &Deck{
		cards:    make(map[string]domain.Card),
		settings: settings.Normalize(),
		now:      now,
	}
}

// Settings returns the normalized settings the deck schedules with.
func (d *Deck) Settings() sm2.Settings {
	return d.settings
}

// Import adds every card whose id is not already present and reports how
// many were added. Existing cards are never touched, so re-importing the
// same catalog is a no-op for them.
func (d *Deck) Import(cards []domain.ImportCard) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	added := 0
	for _, ic := range cards {
		if _, ok := d.cards[ic.ID]; ok {
			continue
		}
		d.cards[ic.ID] = domain.NewCard(ic.ID, ic.Front, ic.Back, ic.Subject)
		added++
	}
	return added
}

// Restore loads previously persisted cards verbatim, replacing any card
// with the same id. Used by hosts when rehydrating a deck from storage.
func (d *Deck) Restore(cards []domain.Card, sessions []domain.Session) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range cards {
		d.cards[c.ID] = c
	}
	for _, s := range sessions {
		if !s.Active() {
			d.history = append(d.history, s)
		}
	}
}

// Card returns the card with the given id.
func (d *Deck) Card(id string) (domain.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.cards[id]
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}
	return c, nil
}

// Cards returns a snapshot of every card, in no particular order.
func (d *Deck) Cards() []domain.Card {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.Card, 0, len(d.cards))
	for _, c := range d.cards {
		out = append(out, c)
	}
	return out
}

// Size returns the number of cards in the deck.
func (d *Deck) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// DueCards returns every card that is due or new, optionally scoped to a
// subject (empty string means all). New cards sort before everything else;
// within each class the most overdue card comes first.
func (d *Deck) DueCards(subject string) []domain.Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dueCardsLocked(subject, d.now())
}

func (d *Deck) dueCardsLocked(subject string, now time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range d.cards {
		if subject != "" && c.Subject != subject {
			continue
		}
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		ni, nj := due[i].IsNew(), due[j].IsNew()
		if ni != nj {
			return ni
		}
		if !due[i].NextReview.Equal(due[j].NextReview) {
			return due[i].NextReview.Before(due[j].NextReview)
		}
		return due[i].ID < due[j].ID // stable order for equal timestamps
	})
	return due
}

// Queue returns the due list with the per-day surfacing caps applied:
// at most NewCardsPerDay new cards and at most ReviewsPerDay cards overall.
// A cap of zero after normalization never occurs; the defaults apply.
func (d *Deck) Queue(subject string) []domain.Card {
	due := d.DueCards(subject)

	queue := make([]domain.Card, 0, len(due))
	newCount := 0
	for _, c := range due {
		if len(queue) >= d.settings.ReviewsPerDay {
			break
		}
		if c.IsNew() {
			if newCount >= d.settings.NewCardsPerDay {
				continue
			}
			newCount++
		}
		queue = append(queue, c)
	}
	return queue
}

// Review grades the card with the given id and writes back the updated
// scheduling state. If a session is active the review is folded into its
// aggregates. The store is unchanged on any error.
func (d *Deck) Review(id string, quality sm2.Quality) (domain.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	card, ok := d.cards[id]
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}

	updated, err := sm2.Review(card, quality, d.settings, d.now())
	if err != nil {
		return domain.Card{}, err
	}
	d.cards[id] = updated

	if d.active != nil {
		d.active.RecordReview(int(quality))
	}
	return updated, nil
}

// Delete removes the card permanently. Other cards keep their schedule.
func (d *Deck) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.cards[id]; !ok {
		return ErrCardNotFound
	}
	delete(d.cards, id)
	return nil
}

// Reset discards the card's scheduling history, keeping its identity and
// content, and returns the re-created card.
func (d *Deck) Reset(id string) (domain.Card, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.cards[id]
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}
	fresh := domain.NewCard(c.ID, c.Front, c.Back, c.Subject)
	d.cards[id] = fresh
	return fresh, nil
}

// SubjectSummary reports the card counts for one subject.
type SubjectSummary struct {
	Subject string `json:"subject"`
	Total   int    `json:"total"`
	Due     int    `json:"due"`
	New     int    `json:"new"`
}

// Subjects returns a summary per distinct subject, sorted by subject name.
// The clock is read once so every subject is judged against the same now.
func (d *Deck) Subjects() []SubjectSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	bySubject := make(map[string]*SubjectSummary)
	for _, c := range d.cards {
		s, ok := bySubject[c.Subject]
		if !ok {
			s = &SubjectSummary{Subject: c.Subject}
			bySubject[c.Subject] = s
		}
		s.Total++
		if c.IsNew() {
			s.New++
		}
		if c.IsDue(now) {
			s.Due++
		}
	}

	out := make([]SubjectSummary, 0, len(bySubject))
	for _, s := range bySubject {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}
