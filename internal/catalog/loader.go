// Package catalog turns tabular provider data into validated models.Provider
// records. Rows that fail validation are dropped, never reported as errors.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"coach-matching/internal/common/logger"
	"coach-matching/internal/models"
)

// Source column headers.
const (
	ColFirstName         = "First Name"
	ColLastName          = "Last Name"
	ColSpecialties       = "Areas of Specialization"
	ColModalities        = "Treatment Modality"
	ColLocation          = "Location"
	ColGender            = "Gender Identity"
	ColEthnicity         = "Ethnic Identity"
	ColReligion          = "Religious Background"
	ColCapacity          = "No Of Clients Able To Take On"
	ColLanguage          = "Language"
	ColBio               = "Bio"
	ColSexualOrientation = "Sexual Orientation"
	ColAvailableTimes    = "Available Times"
	ColPaymentMethods    = "Payment Methods"
)

// Columns lists every column the loader reads.
var Columns = []string{
	ColFirstName, ColLastName, ColSpecialties, ColModalities, ColLocation,
	ColGender, ColEthnicity, ColReligion, ColCapacity, ColLanguage, ColBio,
	ColSexualOrientation, ColAvailableTimes, ColPaymentMethods,
}

// Drop reasons recorded in LoadStats.
const (
	ReasonMissingName   = "missing_name"
	ReasonNoSpecialties = "no_specialties"
	ReasonNoCapacity    = "no_capacity"
	ReasonMalformedRow  = "malformed_row"
)

var (
	// ErrSourceUnreadable wraps every failure to read or parse a catalog source.
	ErrSourceUnreadable = errors.New("catalog source unreadable")
	// ErrNotTabular marks sources that were read but are not valid CSV.
	ErrNotTabular = errors.New("catalog source is not tabular")

	// errMalformedRow tells FromRecords to drop the current row and go on.
	errMalformedRow = errors.New("malformed row")
)

// RegionExpander maps a location token to its full region name.
type RegionExpander interface {
	Expand(token string) string
}

// Record is one source row keyed by column header.
type Record map[string]string

func (r Record) get(col string) string {
	return strings.TrimSpace(r[col])
}

type LoadStats struct {
	Rows        int            `json:"rows"`
	Loaded      int            `json:"loaded"`
	Dropped     int            `json:"dropped"`
	DropReasons map[string]int `json:"dropReasons,omitempty"`
}

// Catalog is the result of one load.
type Catalog struct {
	Providers []models.Provider `json:"providers"`
	Stats     LoadStats         `json:"stats"`
	LoadedAt  time.Time         `json:"loadedAt"`
}

// Clone deep-copies the catalog so cached copies cannot be mutated by callers.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := &Catalog{
		Providers: models.CloneProviders(c.Providers),
		Stats:     c.Stats,
		LoadedAt:  c.LoadedAt,
	}
	if c.Stats.DropReasons != nil {
		out.Stats.DropReasons = make(map[string]int, len(c.Stats.DropReasons))
		for k, v := range c.Stats.DropReasons {
			out.Stats.DropReasons[k] = v
		}
	}
	return out
}

// Loader cleans and validates rows. It holds no state between calls.
type Loader struct {
	regions RegionExpander
	logger  logger.Logger
}

func NewLoader(regions RegionExpander, log logger.Logger) *Loader {
	return &Loader{regions: regions, logger: log}
}

// ParseCSV reads a CSV document with a header row. Column order does not
// matter and short or long rows are tolerated. Stray quotes are read
// literally; a data row that still fails to parse is dropped. Only a missing
// or unreadable header, or one naming none of the catalog columns, fails the
// load.
func (l *Loader) ParseCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %w: no header row", ErrSourceUnreadable, ErrNotTabular)
	}
	if err != nil {
		return nil, wrapReadError(err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		colIdx[strings.ToLower(h)] = i
	}
	if missing := l.warnMissingColumns(colIdx); len(missing) == len(Columns) {
		return nil, fmt.Errorf("%w: %w: header has no catalog columns", ErrSourceUnreadable, ErrNotTabular)
	}

	next := func() (Record, error) {
		row, err := cr.Read()
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %w", errMalformedRow, err)
		}
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(Columns))
		for _, col := range Columns {
			if i, ok := colIdx[strings.ToLower(col)]; ok && i < len(row) {
				rec[col] = row[i]
			}
		}
		return rec, nil
	}

	cat, err := l.FromRecords(next)
	if err != nil {
		return nil, wrapReadError(err)
	}
	return cat, nil
}

func wrapReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %w: %w", ErrSourceUnreadable, ErrNotTabular, err)
	}
	return fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
}

func (l *Loader) warnMissingColumns(colIdx map[string]int) []string {
	var missing []string
	for _, col := range Columns {
		if _, ok := colIdx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		l.logger.Warn("catalog source is missing columns", map[string]interface{}{
			"columns": missing,
		})
	}
	return missing
}

// FromRecords drains next until io.EOF, keeping valid providers in order.
// Rows next reports as malformed are dropped like invalid ones.
// Any other error from next aborts the load.
func (l *Loader) FromRecords(next func() (Record, error)) (*Catalog, error) {
	cat := &Catalog{
		Providers: []models.Provider{},
		Stats:     LoadStats{DropReasons: map[string]int{}},
	}

	for {
		rec, err := next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, errMalformedRow) {
			cat.Stats.Rows++
			cat.Stats.Dropped++
			cat.Stats.DropReasons[ReasonMalformedRow]++
			l.logger.Debug("provider row dropped", map[string]interface{}{
				"row":    cat.Stats.Rows,
				"reason": ReasonMalformedRow,
				"error":  err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		cat.Stats.Rows++

		p, reason := l.BuildProvider(rec)
		if reason != "" {
			cat.Stats.Dropped++
			cat.Stats.DropReasons[reason]++
			l.logger.Debug("provider row dropped", map[string]interface{}{
				"row":    cat.Stats.Rows,
				"reason": reason,
			})
			continue
		}
		cat.Providers = append(cat.Providers, p)
	}

	cat.Stats.Loaded = len(cat.Providers)
	cat.LoadedAt = time.Now().UTC()
	return cat, nil
}

// BuildProvider cleans one record. A non-empty reason means the row is invalid.
func (l *Loader) BuildProvider(rec Record) (models.Provider, string) {
	first, last := rec.get(ColFirstName), rec.get(ColLastName)
	if first == "" || last == "" {
		return models.Provider{}, ReasonMissingName
	}

	specialties := splitList(rec.get(ColSpecialties))
	if len(specialties) == 0 {
		return models.Provider{}, ReasonNoSpecialties
	}

	capacity, err := strconv.Atoi(rec.get(ColCapacity))
	if err != nil || capacity <= 0 {
		return models.Provider{}, ReasonNoCapacity
	}

	locations := splitList(rec.get(ColLocation))
	if l.regions != nil {
		for i, loc := range locations {
			locations[i] = l.regions.Expand(loc)
		}
	}

	return models.Provider{
		Name:        first + " " + last,
		Specialties: specialties,
		Modalities:  splitList(rec.get(ColModalities)),
		Location:    locations,
		Demographics: models.Demographics{
			Gender:    orDefault(rec.get(ColGender), models.NotSpecified),
			Ethnicity: orDefault(rec.get(ColEthnicity), models.NotSpecified),
			Religion:  orDefault(rec.get(ColReligion), models.NotSpecified),
		},
		Availability:      capacity,
		Languages:         splitList(rec.get(ColLanguage)),
		Bio:               orDefault(rec.get(ColBio), models.NoBio),
		SexualOrientation: orDefault(rec.get(ColSexualOrientation), models.NotSpecified),
		AvailableTimes:    splitList(rec.get(ColAvailableTimes)),
		PaymentMethods:    splitList(rec.get(ColPaymentMethods)),
	}, ""
}

// splitList splits on commas, trims, and drops empty elements.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
