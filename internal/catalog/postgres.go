package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// dbColumns maps table columns to source headers, in SELECT order.
var dbColumns = []struct {
	column string
	header string
}{
	{"first_name", ColFirstName},
	{"last_name", ColLastName},
	{"areas_of_specialization", ColSpecialties},
	{"treatment_modality", ColModalities},
	{"location", ColLocation},
	{"gender_identity", ColGender},
	{"ethnic_identity", ColEthnicity},
	{"religious_background", ColReligion},
	{"clients_able_to_take_on", ColCapacity},
	{"language", ColLanguage},
	{"bio", ColBio},
	{"sexual_orientation", ColSexualOrientation},
	{"available_times", ColAvailableTimes},
	{"payment_methods", ColPaymentMethods},
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads providers from a table whose columns mirror the CSV
// headers in snake_case. Rows are returned in id order. NULLs read as empty.
type PostgresSource struct {
	db     *sql.DB
	table  string
	loader *Loader
}

func NewPostgresSource(db *sql.DB, table string, loader *Loader) (*PostgresSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{db: db, table: table, loader: loader}, nil
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

func (s *PostgresSource) query() string {
	cols := make([]string, len(dbColumns))
	for i, c := range dbColumns {
		cols[i] = c.column
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(cols, ", "), s.table)
}

func (s *PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	rows, err := s.db.QueryContext(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrSourceUnreadable, s.table, err)
	}
	defer rows.Close()

	next := func() (Record, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		vals := make([]sql.NullString, len(dbColumns))
		dest := make([]interface{}, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec := make(Record, len(dbColumns))
		for i, c := range dbColumns {
			rec[c.header] = vals[i].String
		}
		return rec, nil
	}

	cat, err := s.loader.FromRecords(next)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrSourceUnreadable, s.table, err)
	}
	observe("postgres", start, cat)
	return cat, nil
}
