// internal/workers/catalog/refresh-provider-catalog/handler_test.go
package refreshprovidercatalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"coach-matching/internal/catalog"
	apperrors "coach-matching/internal/common/errors"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/geography"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	body  string
	loads int
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	s.loads++
	loader := catalog.NewLoader(geography.Default(), logger.NewNoOpLogger())
	return catalog.NewReaderSource("counting", []byte(s.body), loader).Load(ctx)
}

type failingRefresher struct{ err error }

func (f failingRefresher) Name() string { return "failing" }

func (f failingRefresher) Refresh(context.Context) (*catalog.Catalog, error) {
	return nil, f.err
}

const body = "First Name,Last Name,Areas of Specialization,No Of Clients Able To Take On\n" +
	"Maya,Chen,Anxiety,3\n" +
	"Daniel,,Grief,2\n" +
	"Lucia,Ramirez,Anxiety,0\n"

func TestHandler_Execute_RefreshesCache(t *testing.T) {
	src := &countingSource{body: body}
	cached := catalog.NewCachedSource(src, time.Hour, nil, logger.NewTestLogger(t))
	h := NewHandler(LoadConfig(), cached, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := cached.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.loads)

	output, err := h.Execute(ctx, &Input{Reason: "nightly"})
	require.NoError(t, err)

	assert.Equal(t, 2, src.loads)
	assert.Equal(t, "cached:counting", output.Source)
	assert.Equal(t, 3, output.Rows)
	assert.Equal(t, 1, output.Loaded)
	assert.Equal(t, 2, output.Dropped)
	assert.Equal(t, map[string]int{catalog.ReasonMissingName: 1, catalog.ReasonNoCapacity: 1}, output.DropReasons)
	assert.False(t, output.RefreshedAt.IsZero())

	// the refreshed copy now serves loads
	_, err = cached.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{"unreadable", fmt.Errorf("%w: dial: refused", catalog.ErrSourceUnreadable), apperrors.ErrCodeCatalogSourceUnreadable},
		{"not tabular", fmt.Errorf("%w: %w", catalog.ErrSourceUnreadable, catalog.ErrNotTabular), apperrors.ErrCodeCatalogParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(LoadConfig(), failingRefresher{err: tt.err}, nil, logger.NewTestLogger(t))

			_, err := h.Execute(context.Background(), &Input{})
			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.code, stdErr.Code)
			if tt.code == apperrors.ErrCodeCatalogSourceUnreadable {
				assert.Equal(t, "failing", stdErr.Metadata["source"])
			}
		})
	}
}
