package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/medrecall/medrecall/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// UpsertCard inserts the card or, if its id already exists, overwrites the
// stored scheduling state with the given one. sourceID of zero stores NULL.
func (db *DB) UpsertCard(card domain.Card, sourceID int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (
			id, front, back, subject, repetition, ease_factor, interval,
			next_review, last_review, total_reviews, correct_reviews, streak, lapses, source_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repetition = excluded.repetition,
			ease_factor = excluded.ease_factor,
			interval = excluded.interval,
			next_review = excluded.next_review,
			last_review = excluded.last_review,
			total_reviews = excluded.total_reviews,
			correct_reviews = excluded.correct_reviews,
			streak = excluded.streak,
			lapses = excluded.lapses
	`,
		card.ID,
		card.Front,
		card.Back,
		card.Subject,
		card.Repetition,
		card.EaseFactor,
		card.Interval,
		nullableTime(card.NextReview),
		nullableTime(card.LastReview),
		card.TotalReviews,
		card.CorrectReviews,
		card.Streak,
		card.Lapses,
		nullableID(sourceID),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %s: %w", card.ID, err)
	}
	return nil
}

// FindCardByID retrieves a card from the database by its id.
// It returns (nil, nil) when the card does not exist.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`
		SELECT id, front, back, subject, repetition, ease_factor, interval,
		       next_review, last_review, total_reviews, correct_reviews, streak, lapses
		FROM cards WHERE id = ?
	`, id)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card by id %s: %w", id, err)
	}
	return card, nil
}

// GetAllCards retrieves every stored card.
func (db *DB) GetAllCards() ([]domain.Card, error) {
	return db.queryCards(`
		SELECT id, front, back, subject, repetition, ease_factor, interval,
		       next_review, last_review, total_reviews, correct_reviews, streak, lapses
		FROM cards
	`)
}

// GetCardsBySourceID retrieves all cards associated with a specific source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]domain.Card, error) {
	return db.queryCards(`
		SELECT id, front, back, subject, repetition, ease_factor, interval,
		       next_review, last_review, total_reviews, correct_reviews, streak, lapses
		FROM cards WHERE source_id = ?
	`, sourceID)
}

func (db *DB) queryCards(query string, args ...any) ([]domain.Card, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var c domain.Card
	var nextReview, lastReview sql.NullTime
	err := s.Scan(
		&c.ID,
		&c.Front,
		&c.Back,
		&c.Subject,
		&c.Repetition,
		&c.EaseFactor,
		&c.Interval,
		&nextReview,
		&lastReview,
		&c.TotalReviews,
		&c.CorrectReviews,
		&c.Streak,
		&c.Lapses,
	)
	if err != nil {
		return nil, err
	}
	c.NextReview = nextReview.Time
	c.LastReview = lastReview.Time
	return &c, nil
}

// DeleteCard removes a card from the database by its id.
func (db *DB) DeleteCard(id string) error {
	_, err := db.conn.Exec(`
		DELETE FROM cards
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card with id %s: %w", id, err)
	}
	return nil
}

// InsertSession stores a completed review session.
func (db *DB) InsertSession(s domain.Session) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, start_time, end_time, subject, cards_reviewed, correct_count, average_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID,
		s.StartTime,
		nullableTime(s.EndTime),
		s.Subject,
		s.CardsReviewed,
		s.CorrectCount,
		s.AverageQuality,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
	}
	return nil
}

// GetAllSessions retrieves every stored session, oldest first.
func (db *DB) GetAllSessions() ([]domain.Session, error) {
	rows, err := db.conn.Query(`
		SELECT id, start_time, end_time, subject, cards_reviewed, correct_count, average_quality
		FROM sessions ORDER BY start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		var endTime sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartTime, &endTime, &s.Subject, &s.CardsReviewed, &s.CorrectCount, &s.AverageQuality); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.EndTime = endTime.Time
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Source represents a card source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source path into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type, last_scanned)
		VALUES (?, ?, NULL)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
// It returns (nil, nil) when the source does not exist.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and detaches its cards. The cards keep
// their scheduling state; only the provenance link is cleared.
func (db *DB) DeleteSource(id int64) error {
	if _, err := db.conn.Exec(`UPDATE cards SET source_id = NULL WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach cards from source ID %d: %w", id, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source ID %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
