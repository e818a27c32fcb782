package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/url-insights/internal/insight"
)

// parseRequest is the body of every parse-family endpoint.
type parseRequest struct {
	URL string `json:"url"`
}

// errorResponse is the structured envelope for every error body.
type errorResponse struct {
	Error *insight.Error `json:"error"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	rawURL, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	etag := insight.ETag(rawURL)
	if r.Header.Get("If-None-Match") == etag && s.svc.HasCached(rawURL, etag) {
		s.writeNotModified(w, etag)
		return
	}

	out, err := s.svc.Parse(r.Context(), rawURL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.setCacheHeaders(w, out.ETag)
	writeJSON(s.logger, w, http.StatusOK, out.Record)
}

// projectionHandler serves one read-only projection of the canonical
// record under its own entity tag variant.
func (s *Server) projectionHandler(suffix string, project func(insight.Record) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL, ok := s.decodeRequest(w, r)
		if !ok {
			return
		}

		etag := insight.ETagVariant(rawURL, suffix)
		if r.Header.Get("If-None-Match") == etag {
			s.writeNotModified(w, etag)
			return
		}

		out, err := s.svc.Parse(r.Context(), rawURL)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.setCacheHeaders(w, etag)
		writeJSON(s.logger, w, http.StatusOK, project(out.Record))
	}
}

// decodeRequest parses and validates the request body, writing the error
// response itself when the input is unusable.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, insight.ErrPayloadTooLarge())
			return "", false
		}
		s.writeError(w, insight.ErrInvalidRequest("invalid JSON body", nil))
		return "", false
	}
	if err := insight.ValidateURL(req.URL); err != nil {
		s.writeError(w, err)
		return "", false
	}
	return req.URL, true
}

func (s *Server) setCacheHeaders(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.svc.MaxAge()))
}

func (s *Server) writeNotModified(w http.ResponseWriter, etag string) {
	s.setCacheHeaders(w, etag)
	w.WriteHeader(http.StatusNotModified)
}

// writeError maps any error onto the structured envelope; errors outside
// the taxonomy become opaque 500s.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var svcErr *insight.Error
	if !errors.As(err, &svcErr) {
		s.logger.Error("unclassified error", zap.Error(err))
		svcErr = insight.ErrInternal(err)
	}
	writeJSON(s.logger, w, svcErr.Status, errorResponse{Error: svcErr})
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}
