// internal/workers/matching/match-providers/models.go
package matchproviders

import (
	"time"

	"coach-matching/internal/models"
)

// Input carries the client's preferences. Providers is optional; when absent
// the configured catalog is used.
type Input struct {
	RequestID   string                    `json:"requestId,omitempty"`
	Preferences models.PatientPreferences `json:"preferences"`
	Providers   []models.Provider         `json:"providers,omitempty"`
}

type Output struct {
	MatchID        string               `json:"matchId"`
	RequestID      string               `json:"requestId,omitempty"`
	Matches        []models.MatchResult `json:"matches"`
	CandidateCount int                  `json:"candidateCount"`
	EligibleCount  int                  `json:"eligibleCount"`
	MatchedAt      time.Time            `json:"matchedAt"`
}
