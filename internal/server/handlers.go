package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// SearchRequest is the body for the search endpoints.
type SearchRequest struct {
	Query string `json:"query"`
	// Type optionally restricts results to one document type, e.g. "product".
	Type   string `json:"type,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.String("type", req.Type), zap.Int("limit", req.Limit))

	var response models.SearchResponse
	if req.Type != "" {
		docType, err := models.ParseDocumentType(req.Type)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response = s.engine.SearchByType(r.Context(), req.Query, docType, req.Limit)
	} else {
		response = s.engine.Search(r.Context(), req.Query, req.Limit)
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSearchPersonalized(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("personalized search request", zap.String("query", req.Query), zap.String("user_id", req.UserID))
	response := s.engine.SearchWithReranking(r.Context(), req.Query, req.UserID, req.Limit)
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSearchAdmin(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	response := s.engine.SearchAdminContent(r.Context(), req.Query, req.Limit)
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	suggestions := s.engine.Suggestions(r.Context(), partial, limit)
	s.respondJSON(w, http.StatusOK, models.SuggestResponse{
		Suggestions: suggestions,
		Query:       partial,
	})
}

// handleRefresh kicks off a background rebuild and returns immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.engine.RefreshIndex(context.WithoutCancel(r.Context())); err != nil {
			s.logger.Error("refresh failed", zap.Error(err))
		}
	}()
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.engine.Documents()
	if docs == nil {
		docs = []models.IndexedDocument{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"total":     len(docs),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	degraded := s.engine.DegradedSources()
	if degraded == nil {
		degraded = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":            s.engine.State().String(),
		"documents":        s.engine.DocumentCount(),
		"degraded_sources": degraded,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
