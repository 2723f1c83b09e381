package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lepinkainen/notion-books/internal/book"
	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

type searchResponse struct {
	Query   string        `json:"query"`
	Results []book.Record `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := queryFrom(r)

	maxResults := s.cfg.SearchMaxResults
	if raw := strings.TrimSpace(r.URL.Query().Get("max_results")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, apperrors.NewBadRequestError("max_results must be an integer"))
			return
		}
		maxResults = clamp(n, 1, maxSearchResult)
	}

	results, err := s.searcher.Search(r.Context(), query, maxResults)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []book.Record{}
	}

	slog.Debug("Search served", "query", query, "results", len(results), "request_id", RequestIDFrom(r))
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if s.adder == nil {
		slog.Error("Add requested but Notion is not configured", "request_id", RequestIDFrom(r))
		writeDetail(w, http.StatusInternalServerError, "Notion credentials not configured")
		return
	}

	var rec book.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&rec); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, apperrors.NewBadRequestError("Request body too large"))
			return
		}
		writeError(w, r, apperrors.NewBadRequestError("Invalid JSON body"))
		return
	}

	rec.Normalize()
	if rec.Title == "" {
		writeError(w, r, apperrors.NewBadRequestError("title is required"))
		return
	}

	conf, err := s.adder.AddBook(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conf)
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
