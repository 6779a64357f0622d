package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"coach-matching/internal/catalog"
	apperrors "coach-matching/internal/common/errors"
	"coach-matching/internal/matching"
	"coach-matching/internal/models"
)

// MatchTaskType is the registry entry whose input schema also guards
// POST /api/v1/providers/match.
const MatchTaskType = "match-providers"

const maxBodyBytes = 4 << 20

type MatchRequest struct {
	RequestID   string                    `json:"requestId,omitempty"`
	Preferences models.PatientPreferences `json:"preferences"`
	Providers   []models.Provider         `json:"providers,omitempty"`
}

type MatchResponse struct {
	MatchID        string               `json:"matchId"`
	RequestID      string               `json:"requestId,omitempty"`
	Matches        []models.MatchResult `json:"matches"`
	CandidateCount int                  `json:"candidateCount"`
	EligibleCount  int                  `json:"eligibleCount"`
	MatchedAt      time.Time            `json:"matchedAt"`
}

type ProvidersResponse struct {
	Providers []models.Provider `json:"providers"`
	Stats     catalog.LoadStats `json:"stats"`
	LoadedAt  time.Time         `json:"loadedAt"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{"status": state, "checks": results})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	cat, err := s.deps.Source.Load(r.Context())
	if err != nil {
		s.writeError(w, catalog.AsStandardError(s.deps.Source.Name(), err))
		return
	}
	writeJSON(w, http.StatusOK, ProvidersResponse{
		Providers: cat.Providers,
		Stats:     cat.Stats,
		LoadedAt:  cat.LoadedAt,
	})
}

func (s *Server) matchProviders(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, apperrors.NewInvalidInputError("read body: "+err.Error()))
		return
	}

	vres, err := s.deps.Validator.ValidateJSON(MatchTaskType, string(body))
	if err != nil {
		s.writeError(w, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if !vres.Valid {
		details := strings.Join(vres.GetErrorMessages(), "; ")
		if vres.HasErrors("preferences") {
			s.writeError(w, apperrors.NewInvalidPreferencesError(details))
		} else {
			s.writeError(w, apperrors.NewInvalidInputError(details))
		}
		return
	}

	var req MatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	result, err := s.matcher.Run(r.Context(), "http", matching.Request{
		RequestID:   req.RequestID,
		Preferences: req.Preferences,
		Providers:   req.Providers,
	})
	if err != nil {
		s.writeError(w, apperrors.Normalize(err))
		return
	}

	writeJSON(w, http.StatusOK, MatchResponse{
		MatchID:        result.MatchID,
		RequestID:      result.RequestID,
		Matches:        result.Matches,
		CandidateCount: result.CandidateCount,
		EligibleCount:  result.EligibleCount,
		MatchedAt:      result.MatchedAt,
	})
}

func (s *Server) refreshCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := s.deps.Refresher.Refresh(r.Context())
	if err != nil {
		s.writeError(w, catalog.AsStandardError(s.deps.Source.Name(), err))
		return
	}
	writeJSON(w, http.StatusOK, cat.Stats)
}

func (s *Server) writeError(w http.ResponseWriter, stdErr *apperrors.StandardError) {
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.deps.Logger.Error("request failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:    string(stdErr.Code),
		Message: stdErr.Message,
		Details: stdErr.Details,
	}})
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidPreferences:
		return http.StatusBadRequest
	case apperrors.ErrCodeCatalogParseFailed:
		return http.StatusBadGateway
	case apperrors.ErrCodeCatalogSourceUnreadable, apperrors.ErrCodeDatabaseConnectionFailed:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
