// Package matching scores providers against a client's preferences and
// returns the best candidates. The Engine performs no I/O and holds no state
// beyond the injected geography, so it is safe for concurrent use. Matcher
// adds the catalog lookup shared by the job worker and the HTTP API.
package matching

import (
	"sort"

	"coach-matching/internal/models"
)

// MaxResults is the number of matches returned by Match.
const MaxResults = 3

// Geography resolves region names. Implemented by *geography.Table.
type Geography interface {
	Expand(token string) string
	IsNeighbor(a, b string) bool
}

type Engine struct {
	geo Geography
}

// NewEngine returns an engine using geo for location scoring. A nil geo
// limits location scoring to exact, case-insensitive name equality.
func NewEngine(geo Geography) *Engine {
	return &Engine{geo: geo}
}

// Rank scores every provider with capacity and sorts by score descending.
// Equal scores keep their input order.
func (e *Engine) Rank(prefs models.PatientPreferences, providers []models.Provider) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(providers))
	for _, p := range providers {
		if !p.HasCapacity() {
			continue
		}
		b := e.Score(prefs, p)
		results = append(results, models.MatchResult{
			Provider:   p,
			MatchScore: b.Total(),
			Breakdown:  b,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	return results
}

// Match returns at most MaxResults ranked providers. An empty result is not
// an error.
func (e *Engine) Match(prefs models.PatientPreferences, providers []models.Provider) []models.MatchResult {
	ranked := e.Rank(prefs, providers)
	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}
	return ranked
}
