package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/medrecall/medrecall/internal/config"
	"github.com/medrecall/medrecall/internal/deck"
	"github.com/medrecall/medrecall/internal/storage"
	"github.com/medrecall/medrecall/internal/syncer"
	"github.com/medrecall/medrecall/internal/web"
)

func main() {
	// 1. Define and parse command-line flags
	flags := flag.NewFlagSet("medrecall", flag.ExitOnError)
	configPath := flags.String("config", "", "Path to a YAML config file")
	flags.String("listen", ":8080", "Address for the web UI to listen on")
	flags.String("database", "medrecall.db", "Path to the SQLite database file")
	addSource := flags.String("add-source", "", "Register a deck source (directory or git URL) and exit after syncing")
	syncOnly := flags.Bool("sync", false, "Sync all sources and exit without serving")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// 2. Load configuration (file, environment, flags)
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 3. Open the database
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("Database opened", "path", cfg.Database)

	// 4. Rehydrate the deck from storage
	cards, err := db.GetAllCards()
	if err != nil {
		log.Fatalf("Failed to load cards: %v", err)
	}
	sessions, err := db.GetAllSessions()
	if err != nil {
		log.Fatalf("Failed to load sessions: %v", err)
	}
	d := deck.New(cfg.Scheduler)
	d.Restore(cards, sessions)
	slog.Info("Deck loaded", "cards", len(cards), "sessions", len(sessions))

	// 5. Register a new source if requested
	if *addSource != "" {
		sourceType := syncer.ClassifyPath(*addSource)
		existing, err := db.FindSourceByPath(*addSource)
		if err != nil {
			log.Fatalf("Failed to look up source: %v", err)
		}
		if existing == nil {
			if _, err := db.InsertSource(*addSource, sourceType); err != nil {
				log.Fatalf("Failed to add source: %v", err)
			}
			slog.Info("Source added", "path", *addSource, "type", sourceType)
		} else {
			slog.Info("Source already registered", "path", *addSource)
		}
	}

	// 6. Sync all sources into the deck
	if err := syncer.RunSync(db, d); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	if *syncOnly || *addSource != "" {
		return
	}

	// 7. Serve the review UI
	slog.Info("Serving", "addr", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, web.NewServer(d, db)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
