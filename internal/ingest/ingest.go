// Package ingest pulls papers from arxiv into the store and keeps
// their embeddings current.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paperscope/paperscope/internal/embedding"
	"github.com/paperscope/paperscope/internal/paper"
	"github.com/paperscope/paperscope/internal/storage"
)

// ProgressReporter receives progress updates during a run.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// Fetcher retrieves a batch of papers; satisfied by *arxiv.Client.
type Fetcher interface {
	Fetch(ctx context.Context, query string, start, maxResults int) ([]paper.Paper, error)
}

// Stats summarizes one pipeline run.
type Stats struct {
	Fetched  int `json:"fetched"`
	Written  int `json:"written"`  // Papers inserted or version-updated
	Embedded int `json:"embedded"` // Papers whose embedding was stored
	Failed   int `json:"failed"`   // Papers whose embedding failed (stored without vector)
}

// Pipeline fetches papers and writes them, with embeddings, into the
// store.
type Pipeline struct {
	fetcher  Fetcher
	db       *storage.DB
	provider embedding.Provider
	logger   *zap.Logger
	progress ProgressReporter
}

// New creates an ingestion pipeline. provider may be nil, in which case
// papers are stored without embeddings (Backfill can embed them later).
func New(fetcher Fetcher, db *storage.DB, provider embedding.Provider, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:  fetcher,
		db:       db,
		provider: provider,
		logger:   logger,
	}
}

// SetProgressReporter sets the progress reporter for the pipeline.
func (p *Pipeline) SetProgressReporter(reporter ProgressReporter) {
	p.progress = reporter
}

// Run fetches one batch for the query and upserts every paper. New and
// version-updated papers are embedded inline; an embedding failure
// stores the paper without a vector and continues, so a flaky model
// never stalls ingestion.
func (p *Pipeline) Run(ctx context.Context, query string, maxResults int) (*Stats, error) {
	papers, err := p.fetcher.Fetch(ctx, query, 0, maxResults)
	if err != nil {
		return nil, fmt.Errorf("fetching papers: %w", err)
	}

	stats := &Stats{Fetched: len(papers)}
	for i := range papers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.progress != nil {
			p.progress.OnProgress(i+1, len(papers))
		}

		pp := &papers[i]
		written, err := p.db.UpsertPaper(pp)
		if err != nil {
			return nil, fmt.Errorf("storing paper %s: %w", pp.ArxivID, err)
		}
		if !written {
			continue
		}
		stats.Written++

		if p.provider == nil || pp.Summary == "" {
			continue
		}
		if err := p.embedOne(ctx, pp); err != nil {
			stats.Failed++
			p.logger.Warn("embedding paper failed",
				zap.String("arxiv_id", pp.ArxivID), zap.Error(err))
			continue
		}
		stats.Embedded++
	}

	p.logger.Info("ingestion run finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("written", stats.Written),
		zap.Int("embedded", stats.Embedded))
	return stats, nil
}

// Backfill embeds every stored paper that has no vector yet. Unlike
// Run, an embedding failure aborts the backfill: it is an explicit
// maintenance operation and should not half-complete silently.
func (p *Pipeline) Backfill(ctx context.Context) (*Stats, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	papers, err := p.db.PapersMissingEmbedding()
	if err != nil {
		return nil, fmt.Errorf("loading unembedded papers: %w", err)
	}

	stats := &Stats{Fetched: len(papers)}
	for i := range papers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.progress != nil {
			p.progress.OnProgress(i+1, len(papers))
		}

		pp := &papers[i]
		if pp.Summary == "" {
			continue
		}
		if err := p.embedOne(ctx, pp); err != nil {
			return nil, fmt.Errorf("embedding paper %s: %w", pp.ArxivID, err)
		}
		stats.Embedded++
	}
	return stats, nil
}

func (p *Pipeline) embedOne(ctx context.Context, pp *paper.Paper) error {
	vec, err := p.provider.EmbedText(ctx, embedding.PaperText(pp.Title, pp.Summary))
	if err != nil {
		return err
	}
	return p.db.SaveEmbedding(pp.ID, vec)
}
