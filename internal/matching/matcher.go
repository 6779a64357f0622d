package matching

import (
	"context"
	"time"

	"coach-matching/internal/catalog"
	"coach-matching/internal/common/metrics"
	"coach-matching/internal/models"

	"github.com/google/uuid"
)

// Request is one match call. A nil Providers slice means "use the catalog";
// an empty one matches against nothing.
type Request struct {
	RequestID   string
	Preferences models.PatientPreferences
	Providers   []models.Provider
}

type Result struct {
	MatchID        string
	RequestID      string
	Matches        []models.MatchResult
	CandidateCount int
	EligibleCount  int
	MatchedAt      time.Time
}

// Matcher is the single path every entry point (job worker, HTTP) takes to
// run a match.
type Matcher struct {
	engine *Engine
	source catalog.Source
}

func NewMatcher(engine *Engine, source catalog.Source) *Matcher {
	return &Matcher{engine: engine, source: source}
}

// Run loads the catalog when the request carries no providers, matches and
// records metrics under the entrypoint label. Catalog failures come back as
// *apperrors.StandardError.
func (m *Matcher) Run(ctx context.Context, entrypoint string, req Request) (*Result, error) {
	providers := req.Providers
	if providers == nil {
		var err error
		providers, err = catalog.LoadCatalog(ctx, m.source)
		if err != nil {
			return nil, catalog.AsStandardError(m.source.Name(), err)
		}
	}

	eligible := 0
	for _, p := range providers {
		if p.HasCapacity() {
			eligible++
		}
	}

	matches := m.engine.Match(req.Preferences, providers)
	metrics.MatchRequests.WithLabelValues(entrypoint).Inc()
	metrics.MatchResultSize.Observe(float64(len(matches)))

	return &Result{
		MatchID:        uuid.NewString(),
		RequestID:      req.RequestID,
		Matches:        matches,
		CandidateCount: len(providers),
		EligibleCount:  eligible,
		MatchedAt:      time.Now().UTC(),
	}, nil
}
