package catalog

import (
	"context"
	"errors"

	apperrors "coach-matching/internal/common/errors"
)

// AsStandardError maps a load failure from the named source onto the
// workflow error codes.
func AsStandardError(source string, err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrNotTabular):
		return apperrors.NewCatalogParseFailedError(source, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(source, err)
	default:
		return apperrors.NewCatalogSourceUnreadableError(source, err).WithMetadata("source", source)
	}
}
