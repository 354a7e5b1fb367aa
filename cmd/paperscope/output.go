package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paperscope/paperscope/internal/config"
	"github.com/paperscope/paperscope/internal/embedding"
	"github.com/paperscope/paperscope/internal/paper"
	"github.com/paperscope/paperscope/internal/semantic"
	"github.com/paperscope/paperscope/internal/storage"
)

const (
	// SearchTitleMaxLen truncates titles in result summaries.
	SearchTitleMaxLen = 70
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaperResult represents a paper in command output.
type PaperResult struct {
	ID       int64    `json:"id"`
	ArxivID  string   `json:"arxiv_id"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Category string   `json:"category"`
	Year     int      `json:"year"`
	AbsURL   string   `json:"abs_url,omitempty"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// toResults converts papers to output rows.
func toResults(papers []paper.Paper) []PaperResult {
	results := make([]PaperResult, 0, len(papers))
	for _, p := range papers {
		results = append(results, PaperResult{
			ID:       p.ID,
			ArxivID:  p.ArxivID,
			Title:    p.Title,
			Authors:  p.Authors,
			Category: p.Category,
			Year:     p.Published.Year(),
			AbsURL:   p.Links.Abs,
		})
	}
	return results
}

// printResultsHuman prints result rows in human-readable format.
func printResultsHuman(results []PaperResult) {
	for i, r := range results {
		fmt.Printf("%d. [%s] %s\n", i+1, r.ArxivID, truncateString(r.Title, SearchTitleMaxLen))
		fmt.Printf("   %s (%d, %s)\n\n", formatAuthors(r.Authors, 3), r.Year, r.Category)
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthors joins authors with "et al." past maxCount.
func formatAuthors(authors []string, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}
	if len(authors) > maxCount {
		return strings.Join(authors[:maxCount], ", ") + ", et al."
	}
	return strings.Join(authors, ", ")
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// mustOpenStore opens the sqlite store or exits.
func mustOpenStore(cfg *config.Config) *storage.DB {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		exitWithError(ExitDataError, "opening store at %s: %v", cfg.DBPath, err)
	}
	return db
}

// newProvider builds the Ollama embedding provider from config.
func newProvider(cfg *config.Config) *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Ollama.URL),
		embedding.WithModel(cfg.Ollama.Model),
		embedding.WithDimensions(cfg.Ollama.Dimensions),
	)
}

// mustLoadCache builds the vector cache from the store or exits.
func mustLoadCache(ctx context.Context, cfg *config.Config, db *storage.DB) *semantic.Cache {
	cache := semantic.NewCache(cfg.Ollama.Dimensions)
	if _, err := cache.Reload(ctx, db); err != nil {
		exitWithError(ExitDataError, "loading embedding cache: %v", err)
	}
	return cache
}
