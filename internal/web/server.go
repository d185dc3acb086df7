package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/medrecall/medrecall/internal/deck"
	"github.com/medrecall/medrecall/internal/sm2"
	"github.com/medrecall/medrecall/internal/storage"
	"github.com/medrecall/medrecall/internal/syncer"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	deck      *deck.Deck
	db        *storage.DB
	router    *http.ServeMux
	templates *template.Template
	markdown  goldmark.Markdown
}

// NewServer creates and configures a new server around the given deck and
// its backing database.
func NewServer(d *deck.Deck, db *storage.DB) *Server {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	s := &Server{
		deck:      d,
		db:        db,
		router:    http.NewServeMux(),
		templates: tpl,
		markdown:  goldmark.New(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("Failed to create sub-filesystem for static assets: %v", err)
	}
	s.router.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("/", s.handleIndex())

	// HTMX-based review routes
	s.router.HandleFunc("/deck", s.handleGetDeck())
	s.router.HandleFunc("/review/next", s.handleGetNextReview())
	s.router.HandleFunc("/review/answer/", s.handleShowAnswer())
	s.router.HandleFunc("/review/", s.handlePostReview())

	// Reporting
	s.router.HandleFunc("/stats", s.handleGetStats())
	s.router.HandleFunc("/subjects", s.handleGetSubjects())

	// Sessions
	s.router.HandleFunc("/session/start", s.handleStartSession())
	s.router.HandleFunc("/session/end", s.handleEndSession())

	// Source management
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

// render converts markdown card content to sanitized-enough HTML for the
// review templates.
func (s *Server) render(md string) template.HTML {
	var sb strings.Builder
	if err := s.markdown.Convert([]byte(md), &sb); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(sb.String())
}

// cardView is the template payload for one card face.
type cardView struct {
	ID      string
	Subject string
	Front   template.HTML
	Back    template.HTML
	Queue   int
}

func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := map[string]interface{}{
			"Subjects": s.deck.Subjects(),
			"Stats":    s.deck.Stats(""),
		}
		s.templates.ExecuteTemplate(w, "index", data)
	}
}

// handleGetDeck renders the deck view, showing the size of the review queue.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queue := s.deck.Queue(r.URL.Query().Get("subject"))
		data := map[string]interface{}{
			"DueCount":    len(queue),
			"HasDueCards": len(queue) > 0,
		}
		s.templates.ExecuteTemplate(w, "deck", data)
	}
}

// handleGetNextReview renders the front of the next queued card.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queue := s.deck.Queue(r.URL.Query().Get("subject"))
		if len(queue) == 0 {
			s.templates.ExecuteTemplate(w, "deck", map[string]interface{}{
				"DueCount":    0,
				"HasDueCards": false,
			})
			return
		}
		next := queue[0]
		s.templates.ExecuteTemplate(w, "card_front", cardView{
			ID:      next.ID,
			Subject: next.Subject,
			Front:   s.render(next.Front),
			Queue:   len(queue),
		})
	}
}

// handleShowAnswer renders the back of a card with the grading buttons.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/review/answer/")
		card, err := s.deck.Card(id)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.templates.ExecuteTemplate(w, "card_back", cardView{
			ID:      card.ID,
			Subject: card.Subject,
			Front:   s.render(card.Front),
			Back:    s.render(card.Back),
		})
	}
}

// handlePostReview grades a card, persists the new state and renders the
// next card.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/review/")
		quality, err := strconv.Atoi(r.PostFormValue("quality"))
		if err != nil {
			http.Error(w, "Invalid quality", http.StatusBadRequest)
			return
		}

		updated, err := s.deck.Review(id, sm2.Quality(quality))
		switch {
		case errors.Is(err, deck.ErrCardNotFound):
			http.NotFound(w, r)
			return
		case errors.Is(err, sm2.ErrInvalidQuality):
			http.Error(w, "Quality must be between 0 and 5", http.StatusBadRequest)
			return
		case err != nil:
			slog.Error("Error reviewing card", "id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := s.db.UpsertCard(updated, 0); err != nil {
			slog.Error("Error persisting card state", "id", id, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// After review, show the next card
		s.handleGetNextReview()(w, r)
	}
}

// handleGetStats renders the statistics page, optionally scoped to a subject.
func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := r.URL.Query().Get("subject")
		data := map[string]interface{}{
			"Subject":  subject,
			"Stats":    s.deck.Stats(subject),
			"Settings": s.deck.Settings(),
		}
		s.templates.ExecuteTemplate(w, "stats", data)
	}
}

// handleGetSubjects renders the per-subject summary list.
func (s *Server) handleGetSubjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"Subjects": s.deck.Subjects(),
		}
		s.templates.ExecuteTemplate(w, "subjects", data)
	}
}

// handleStartSession opens a review session scoped to an optional subject.
func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session, err := s.deck.StartSession(r.PostFormValue("subject"))
		if errors.Is(err, deck.ErrSessionActive) {
			http.Error(w, "A session is already active", http.StatusConflict)
			return
		}
		s.templates.ExecuteTemplate(w, "session_status", map[string]interface{}{
			"Session": session,
			"Active":  true,
		})
	}
}

// handleEndSession closes the active session, if any, and persists it.
func (s *Server) handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		session := s.deck.EndSession()
		if session != nil {
			if err := s.db.InsertSession(*session); err != nil {
				slog.Error("Error persisting session", "id", session.ID, "error", err)
			}
		}
		s.templates.ExecuteTemplate(w, "session_status", map[string]interface{}{
			"Session": session,
			"Active":  false,
		})
	}
}

// handlePostSync triggers a manual sync and re-renders the source list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Run in the foreground to make the user wait.
		if err := syncer.RunSync(s.db, s.deck); err != nil {
			slog.Error("Sync failed", "error", err)
			http.Error(w, "Sync failed", http.StatusInternalServerError)
			return
		}

		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("Error getting sources after sync", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// Render both the success message and the updated list
		s.templates.ExecuteTemplate(w, "sync_success", nil)
		s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
			"Sources": sources,
		})
	}
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleGetSources renders the main sources management page.
func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("Error getting sources", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "sources", map[string]interface{}{
		"Sources": sources,
	})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := r.PostFormValue("path")
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	if _, err := s.db.InsertSource(path, syncer.ClassifyPath(path)); err != nil {
		slog.Error("Error inserting new source", "error", err)
		http.Error(w, "Failed to add source", http.StatusInternalServerError)
		return
	}

	sources, err := s.db.GetAllSources()
	if err != nil {
		slog.Error("Error getting sources after add", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
		"Sources": sources,
	})
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			slog.Error("Error deleting source", "id", id, "error", err)
			http.Error(w, "Failed to delete source", http.StatusInternalServerError)
			return
		}

		sources, err := s.db.GetAllSources()
		if err != nil {
			slog.Error("Error getting sources after delete", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.templates.ExecuteTemplate(w, "source_list", map[string]interface{}{
			"Sources": sources,
		})
	}
}
