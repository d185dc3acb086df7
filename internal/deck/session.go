package deck

import (
	"github.com/medrecall/medrecall/internal/domain"
)

// StartSession opens a new review sitting, optionally scoped to a subject.
// Only one session can be active at a time; starting another returns
// ErrSessionActive rather than silently abandoning the open one, which
// would corrupt its review accounting.
func (d *Deck) StartSession(subject string) (domain.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return domain.Session{}, ErrSessionActive
	}
	s := domain.NewSession(d.now(), subject)
	d.active = &s
	return s, nil
}

// ActiveSession returns a copy of the in-progress session, or false when
// none is active.
func (d *Deck) ActiveSession() (domain.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil {
		return domain.Session{}, false
	}
	return *d.active, true
}

// EndSession stamps the end time, appends the session to history and clears
// the active slot. With no active session it is a no-op returning nil.
func (d *Deck) EndSession() *domain.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active == nil {
		return nil
	}
	s := *d.active
	s.EndTime = d.now()
	d.history = append(d.history, s)
	d.active = nil
	return &s
}

// Sessions returns the completed sessions, oldest first. Abandoned
// sessions (started but never ended) are not part of history.
func (d *Deck) Sessions() []domain.Session {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]domain.Session, len(d.history))
	copy(out, d.history)
	return out
}
