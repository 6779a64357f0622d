package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coach-matching/internal/catalog"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/validation"
	"coach-matching/internal/geography"
	"coach-matching/internal/matching"
	"coach-matching/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogCSV = "First Name,Last Name,Areas of Specialization,Location,No Of Clients Able To Take On,Payment Methods\n" +
	"Maya,Chen,Anxiety,NY,4,Aetna\n" +
	"Daniel,Okafor,Grief,NJ,2,Cigna\n" +
	",Morgan,Grief,OR,2,Cash\n"

type brokenSource struct{ err error }

func (b brokenSource) Name() string { return "broken" }
func (b brokenSource) Load(context.Context) (*catalog.Catalog, error) {
	return nil, b.err
}

func newServer(t *testing.T, src catalog.Source, checks map[string]Check) *httptest.Server {
	t.Helper()
	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	validator, err := validation.NewSchemaValidator(reg)
	require.NoError(t, err)

	var refresher Refresher
	if cached, ok := src.(*catalog.CachedSource); ok {
		refresher = cached
	}

	srv := httptest.NewServer(NewRouter(Deps{
		Source:    src,
		Refresher: refresher,
		Engine:    matching.NewEngine(geography.Default()),
		Validator: validator,
		Checks:    checks,
		Logger:    logger.NewTestLogger(t),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func csvSource(t *testing.T) catalog.Source {
	loader := catalog.NewLoader(geography.Default(), logger.NewTestLogger(t))
	return catalog.NewReaderSource("test", []byte(catalogCSV), loader)
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthAndReady(t *testing.T) {
	srv := newServer(t, csvSource(t), map[string]Check{
		"catalog": func(context.Context) error { return nil },
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}

func TestReady_FailingCheck(t *testing.T) {
	srv := newServer(t, csvSource(t), map[string]Check{
		"redis":   func(context.Context) error { return errors.New("dial tcp: refused") },
		"catalog": func(context.Context) error { return nil },
	})

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Checks["catalog"])
	assert.Contains(t, body.Checks["redis"], "refused")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, csvSource(t), nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProviders(t *testing.T) {
	srv := newServer(t, csvSource(t), nil)

	resp, err := http.Get(srv.URL + "/api/v1/providers")
	require.NoError(t, err)
	var body ProvidersResponse
	decode(t, resp, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Providers, 2)
	assert.Equal(t, []string{"New York"}, body.Providers[0].Location)
	assert.Equal(t, 3, body.Stats.Rows)
	assert.Equal(t, 1, body.Stats.Dropped)
}

func TestListProviders_SourceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unreadable", fmt.Errorf("%w: open: missing", catalog.ErrSourceUnreadable), http.StatusServiceUnavailable, "CATALOG_SOURCE_UNREADABLE"},
		{"not tabular", fmt.Errorf("%w: %w", catalog.ErrSourceUnreadable, catalog.ErrNotTabular), http.StatusBadGateway, "CATALOG_PARSE_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, brokenSource{err: tt.err}, nil)

			resp, err := http.Get(srv.URL + "/api/v1/providers")
			require.NoError(t, err)
			var body map[string]errorBody
			decode(t, resp, &body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["error"].Code)
		})
	}
}

func TestMatchProviders(t *testing.T) {
	srv := newServer(t, csvSource(t), nil)

	tests := []struct {
		name     string
		body     string
		status   int
		validate func(t *testing.T, resp *http.Response)
	}{
		{
			name:   "catalog",
			body:   `{"requestId":"r-1","preferences":{"areaOfConcern":["anxiety"],"location":"NY","paymentMethod":"Aetna"}}`,
			status: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				var body MatchResponse
				decode(t, resp, &body)
				assert.Equal(t, "r-1", body.RequestID)
				assert.NotEmpty(t, body.MatchID)
				assert.Equal(t, 2, body.CandidateCount)
				require.Len(t, body.Matches, 2)
				assert.Equal(t, "Maya Chen", body.Matches[0].Name)
				assert.Equal(t, 13, body.Matches[0].MatchScore)
				assert.Equal(t, 5, body.Matches[0].Breakdown.Payment)
			},
		},
		{
			name:   "inline providers",
			body:   `{"preferences":{},"providers":[{"name":"A","specialties":["x"],"availability":0},{"name":"B","specialties":["x"],"availability":1}]}`,
			status: http.StatusOK,
			validate: func(t *testing.T, resp *http.Response) {
				var body MatchResponse
				decode(t, resp, &body)
				assert.Equal(t, 2, body.CandidateCount)
				assert.Equal(t, 1, body.EligibleCount)
				require.Len(t, body.Matches, 1)
				assert.Equal(t, "B", body.Matches[0].Name)
			},
		},
		{
			name:   "invalid preferences",
			body:   `{"preferences":{"language":["English"]}}`,
			status: http.StatusBadRequest,
			validate: func(t *testing.T, resp *http.Response) {
				var body map[string]errorBody
				decode(t, resp, &body)
				assert.Equal(t, "INVALID_PREFERENCES", body["error"].Code)
			},
		},
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/providers/match", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.validate != nil {
				tt.validate(t, resp)
			} else {
				resp.Body.Close()
			}
		})
	}
}

func TestRefreshCatalog(t *testing.T) {
	cached := catalog.NewCachedSource(csvSource(t), time.Hour, nil, logger.NewTestLogger(t))
	srv := newServer(t, cached, nil)

	resp, err := http.Post(srv.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	var stats catalog.LoadStats
	decode(t, resp, &stats)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, stats.Loaded)
}

func TestRefreshCatalog_NotMountedWithoutRefresher(t *testing.T) {
	srv := newServer(t, csvSource(t), nil)

	resp, err := http.Post(srv.URL+"/api/v1/catalog/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
