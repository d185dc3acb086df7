// Package syncer reconciles configured deck sources with the deck and the
// database: new cards are imported, cards whose source no longer contains
// them are deleted.
package syncer

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/medrecall/medrecall/internal/cardid"
	"github.com/medrecall/medrecall/internal/deck"
	"github.com/medrecall/medrecall/internal/domain"
	"github.com/medrecall/medrecall/internal/gitsource"
	"github.com/medrecall/medrecall/internal/parser"
	"github.com/medrecall/medrecall/internal/storage"
)

// deckFileSuffix marks the files a source scan picks up.
const deckFileSuffix = ".md"

// reposDir is where git sources are checked out.
const reposDir = "repos"

// SourceType values for storage.Source.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// ClassifyPath decides whether a source path is a git URL or a local directory.
func ClassifyPath(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return SourceGit
	}
	return SourceLocal
}

// RunSync iterates over all stored sources and reconciles each one.
func RunSync(db *storage.DB, d *deck.Deck) error {
	slog.Info("Starting sync process for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("getting sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with --add-source <path/or/url.git>")
		return nil
	}

	for _, source := range sources {
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		scanPath := source.Path
		if source.Type == SourceGit {
			if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
				return fmt.Errorf("creating repos directory: %w", err)
			}
			localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			scanPath = localRepoPath
		}

		reconcileSource(db, d, source, scanPath)
	}
	slog.Info("Sync process complete")
	return nil
}

// reconcileSource walks one source directory, imports new cards and removes
// cards the source no longer contains.
func reconcileSource(db *storage.DB, d *deck.Deck, source storage.Source, scanPath string) {
	var parsed []domain.ImportCard
	var parseErrors []error
	foundIDs := make(map[string]bool)

	walkErr := filepath.WalkDir(scanPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), deckFileSuffix) {
			return nil
		}

		// The file's base name is the default subject for its cards.
		subject := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		fileCards, parseErr := parser.ParseFile(path, subject)
		if parseErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
		}
		for _, card := range fileCards {
			card.ID = cardid.Hash(card)
			parsed = append(parsed, card)
			foundIDs[card.ID] = true
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("Error walking directory", "path", scanPath, "error", walkErr)
		return
	}

	added := d.Import(parsed)
	for _, card := range parsed {
		c, err := d.Card(card.ID)
		if err != nil {
			continue
		}
		if upsertErr := db.UpsertCard(c, source.ID); upsertErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("db upsert for %s: %w", card.ID, upsertErr))
		}
	}

	dbCards, err := db.GetCardsBySourceID(source.ID)
	if err != nil {
		slog.Error("Error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphaned int
	for _, dbCard := range dbCards {
		if foundIDs[dbCard.ID] {
			continue
		}
		slog.Info("Orphaned card, deleting", "id", dbCard.ID)
		orphaned++
		if err := d.Delete(dbCard.ID); err != nil && err != deck.ErrCardNotFound {
			slog.Warn("Failed to delete orphaned card from deck", "id", dbCard.ID, "error", err)
		}
		if err := db.DeleteCard(dbCard.ID); err != nil {
			slog.Warn("Failed to delete orphaned card", "id", dbCard.ID, "error", err)
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", scanPath,
		"parsed_cards", len(parsed),
		"imported", added,
		"orphaned_deleted", orphaned,
		"errors", len(parseErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
