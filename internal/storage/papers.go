package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paperscope/paperscope/internal/paper"
	"github.com/paperscope/paperscope/internal/semantic"
)

// selectPaperFields is the standard field list for paper SELECT queries.
const selectPaperFields = `id, arxiv_id, version, title, authors_json,
	summary, category, abs_url, pdf_url, published, updated,
	embedding_json, created_at`

// UpsertPaper inserts a new paper or updates an existing one when the
// incoming version is newer. It fills in p.ID and reports whether a row
// was written.
func (d *DB) UpsertPaper(p *paper.Paper) (bool, error) {
	var existingID int64
	var existingVersion int
	err := d.db.QueryRow("SELECT id, version FROM papers WHERE arxiv_id = ?", p.ArxivID).
		Scan(&existingID, &existingVersion)

	switch {
	case err == sql.ErrNoRows:
		return d.insertPaper(p)
	case err != nil:
		return false, fmt.Errorf("looking up paper %s: %w", p.ArxivID, err)
	}

	p.ID = existingID
	if p.Version <= existingVersion {
		return false, nil
	}
	return d.updatePaper(p)
}

func (d *DB) insertPaper(p *paper.Paper) (bool, error) {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return false, fmt.Errorf("encoding authors: %w", err)
	}
	embedding, err := encodeEmbedding(p.Embedding)
	if err != nil {
		return false, err
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	res, err := d.db.Exec(`
		INSERT INTO papers (
			arxiv_id, version, title, authors_json, summary, category,
			abs_url, pdf_url, published, updated, embedding_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ArxivID, p.Version, p.Title, string(authors), p.Summary, p.Category,
		p.Links.Abs, p.Links.PDF, p.Published.Unix(), p.Updated.Unix(),
		embedding, p.CreatedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("inserting paper %s: %w", p.ArxivID, err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("reading inserted id: %w", err)
	}
	return true, nil
}

func (d *DB) updatePaper(p *paper.Paper) (bool, error) {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return false, fmt.Errorf("encoding authors: %w", err)
	}
	embedding, err := encodeEmbedding(p.Embedding)
	if err != nil {
		return false, err
	}

	_, err = d.db.Exec(`
		UPDATE papers SET version = ?, title = ?, authors_json = ?,
			summary = ?, category = ?, abs_url = ?, pdf_url = ?,
			published = ?, updated = ?, embedding_json = ?
		WHERE id = ?`,
		p.Version, p.Title, string(authors), p.Summary, p.Category,
		p.Links.Abs, p.Links.PDF, p.Published.Unix(), p.Updated.Unix(),
		embedding, p.ID)
	if err != nil {
		return false, fmt.Errorf("updating paper %s: %w", p.ArxivID, err)
	}
	return true, nil
}

// PaperByID returns the paper with the given id, or ErrNotFound.
func (d *DB) PaperByID(id int64) (*paper.Paper, error) {
	row := d.db.QueryRow("SELECT "+selectPaperFields+" FROM papers WHERE id = ?", id)
	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading paper %d: %w", id, err)
	}
	return p, nil
}

// PapersByIDs fetches the given papers and returns them in the order of
// the input ids. The SQL IN clause does not preserve order, so the rows
// are re-ordered here; ids without a row are skipped.
func (d *DB) PapersByIDs(ids []int64) ([]paper.Paper, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.Query(
		"SELECT "+selectPaperFields+" FROM papers WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("loading papers: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]paper.Paper, len(ids))
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}

	ordered := make([]paper.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// RecentPapers returns the most recently published papers.
func (d *DB) RecentPapers(limit int) ([]paper.Paper, error) {
	rows, err := d.db.Query(
		"SELECT "+selectPaperFields+" FROM papers ORDER BY published DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent papers: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

// SearchTitles returns ids of papers whose title contains the query,
// newest first. This is the keyword fallback used when semantic search
// is unavailable.
func (d *DB) SearchTitles(ctx context.Context, query string, limit int) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id FROM papers WHERE title LIKE ? ORDER BY published DESC LIMIT ?",
		"%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchAllEmbedded returns every (id, embedding) pair currently
// persisted. A row whose embedding does not decode fails the whole call;
// the cache must never be built from partially decoded data.
func (d *DB) FetchAllEmbedded(ctx context.Context) ([]semantic.Record, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, embedding_json FROM papers WHERE embedding_json IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	defer rows.Close()

	var records []semantic.Record
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			return nil, fmt.Errorf("decoding embedding for paper %d: %w", id, err)
		}
		records = append(records, semantic.Record{ID: id, Vector: vec})
	}
	return records, rows.Err()
}

// PapersMissingEmbedding returns papers that have no stored embedding,
// for backfill.
func (d *DB) PapersMissingEmbedding() ([]paper.Paper, error) {
	rows, err := d.db.Query(
		"SELECT " + selectPaperFields + " FROM papers WHERE embedding_json IS NULL")
	if err != nil {
		return nil, fmt.Errorf("loading unembedded papers: %w", err)
	}
	defer rows.Close()
	return collectPapers(rows)
}

// SaveEmbedding stores the embedding vector for a paper.
func (d *DB) SaveEmbedding(paperID int64, vec []float32) error {
	encoded, err := encodeEmbedding(vec)
	if err != nil {
		return err
	}
	res, err := d.db.Exec("UPDATE papers SET embedding_json = ? WHERE id = ?", encoded, paperID)
	if err != nil {
		return fmt.Errorf("saving embedding for paper %d: %w", paperID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("saving embedding for paper %d: %w", paperID, ErrNotFound)
	}
	return nil
}

// CountPapers returns the total number of papers and how many carry an
// embedding.
func (d *DB) CountPapers() (total, embedded int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*), COUNT(embedding_json) FROM papers").Scan(&total, &embedded)
	if err != nil {
		return 0, 0, fmt.Errorf("counting papers: %w", err)
	}
	return total, embedded, nil
}

// encodeEmbedding serializes a vector as JSON, or NULL for nil.
func encodeEmbedding(vec []float32) (interface{}, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("encoding embedding: %w", err)
	}
	return string(data), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(row rowScanner) (*paper.Paper, error) {
	var p paper.Paper
	var authorsJSON string
	var summary, category, absURL, pdfURL, embeddingJSON sql.NullString
	var published, updated, createdAt int64

	err := row.Scan(&p.ID, &p.ArxivID, &p.Version, &p.Title, &authorsJSON,
		&summary, &category, &absURL, &pdfURL, &published, &updated,
		&embeddingJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(authorsJSON), &p.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	p.Summary = summary.String
	p.Category = category.String
	p.Links = paper.Links{Abs: absURL.String, PDF: pdfURL.String}
	p.Published = time.Unix(published, 0).UTC()
	p.Updated = time.Unix(updated, 0).UTC()
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	if embeddingJSON.Valid {
		if err := json.Unmarshal([]byte(embeddingJSON.String), &p.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
	}
	return &p, nil
}

func collectPapers(rows *sql.Rows) ([]paper.Paper, error) {
	var papers []paper.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, *p)
	}
	return papers, rows.Err()
}

// Compile-time checks that the store satisfies the engine's
// collaborator interfaces.
var (
	_ semantic.RecordSource    = (*DB)(nil)
	_ semantic.KeywordSearcher = (*DB)(nil)
)
