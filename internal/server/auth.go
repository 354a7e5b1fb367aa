package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/paperscope/paperscope/internal/storage"
)

type contextKey string

const userKey contextKey = "user"

// userFrom returns the authenticated user id stored by requireUser.
func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey).(int64)
	return id
}

// requireUser resolves the bearer token to a user id and rejects the
// request when the token is missing or unknown.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.db.UserForToken(token)
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "resolving session")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, userID)))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func decodeCredentials(r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, false
	}
	return c, c.Email != "" && c.Password != ""
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	userID, err := s.db.CreateUser(creds.Email, creds.Password)
	if errors.Is(err, storage.ErrEmailTaken) {
		s.writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "creating user")
		return
	}

	token, err := s.db.CreateSession(userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "creating session")
		return
	}
	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "email and password required")
		return
	}

	userID, err := s.db.Authenticate(creds.Email, creds.Password)
	if errors.Is(err, storage.ErrInvalidCredentials) {
		s.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "authenticating")
		return
	}

	token, err := s.db.CreateSession(userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "creating session")
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		if err := s.db.DeleteSession(token); err != nil {
			s.writeError(w, http.StatusInternalServerError, "deleting session")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	ids, err := s.db.LibraryIDs(userFrom(r.Context()))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading library")
		return
	}
	papers, err := s.resolvePapers(ids)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading papers")
		return
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Papers: papers})
}

func (s *Server) handleLibraryAdd(w http.ResponseWriter, r *http.Request) {
	paperID, err := idParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid paper id")
		return
	}
	if _, err := s.db.PaperByID(paperID); errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "paper not found")
		return
	} else if err != nil {
		s.writeError(w, http.StatusInternalServerError, "loading paper")
		return
	}

	if err := s.db.AddToLibrary(userFrom(r.Context()), paperID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "saving paper")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleLibraryRemove(w http.ResponseWriter, r *http.Request) {
	paperID, err := idParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid paper id")
		return
	}
	if err := s.db.RemoveFromLibrary(userFrom(r.Context()), paperID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "removing paper")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
