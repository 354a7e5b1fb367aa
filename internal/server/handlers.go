package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/paperscope/paperscope/internal/paper"
	"github.com/paperscope/paperscope/internal/semantic"
	"github.com/paperscope/paperscope/internal/storage"
)

const (
	// defaultLimit is the result count when the client does not ask.
	defaultLimit = 30
	// maxLimit caps a single response.
	maxLimit = 200
)

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Query  string        `json:"query"`
	Papers []paper.Paper `json:"papers"`
}

type hypeEntry struct {
	Paper paper.Paper `json:"paper"`
	Saves int         `json:"saves"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// limitParam parses the limit query parameter with defaults and cap.
func limitParam(r *http.Request) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// resolvePapers fetches metadata for ranked ids. The ranking order is
// the contract; PapersByIDs restores it after the unordered IN lookup.
func (s *Server) resolvePapers(ids []int64) ([]paper.Paper, error) {
	papers, err := s.db.PapersByIDs(ids)
	if err != nil {
		return nil, err
	}
	if papers == nil {
		papers = []paper.Paper{}
	}
	return papers, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"loaded": s.engine.Cache().Loaded(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := limitParam(r)

	// Empty query serves the recent feed.
	if query == "" {
		papers, err := s.db.RecentPapers(limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "loading recent papers")
			return
		}
		s.writeJSON(w, http.StatusOK, searchResponse{Papers: papers})
		return
	}

	ids, err := s.engine.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	papers, err := s.resolvePapers(ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading papers")
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Query: query, Papers: papers})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	papers, err := s.db.RecentPapers(limitParam(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading recent papers")
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Papers: papers})
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid paper id")
		return
	}
	p, err := s.db.PaperByID(id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading paper")
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid paper id")
		return
	}

	ids := s.engine.SimilarTo(r.Context(), id, limitParam(r))
	papers, err := s.resolvePapers(ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading papers")
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Papers: papers})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())

	library, err := s.db.LibraryIDs(userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading library")
		return
	}

	ids := s.engine.RecommendFor(r.Context(), library, limitParam(r))
	papers, err := s.resolvePapers(ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading papers")
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Papers: papers})
}

func (s *Server) handleHype(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.TopSaved(limitParam(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading hype feed")
		return
	}

	ids := make([]int64, 0, len(entries))
	saves := make(map[int64]int, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PaperID)
		saves[e.PaperID] = e.Saves
	}
	papers, err := s.resolvePapers(ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading papers")
		return
	}

	out := make([]hypeEntry, 0, len(papers))
	for _, p := range papers {
		out = append(out, hypeEntry{Paper: p, Saves: saves[p.ID]})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Cache().Reload(r.Context(), s.db)
	if errors.Is(err, semantic.ErrSourceUnavailable) {
		s.writeError(w, http.StatusServiceUnavailable, "record source unavailable, cache unchanged")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}
