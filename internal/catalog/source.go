package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"coach-matching/internal/common/metrics"
	"coach-matching/internal/models"
)

// Source produces a freshly loaded catalog on every call.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Catalog, error)
}

// LoadCatalog returns the valid providers of src.
func LoadCatalog(ctx context.Context, src Source) ([]models.Provider, error) {
	cat, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Providers, nil
}

// FileSource reads a CSV file from local disk.
type FileSource struct {
	path   string
	loader *Loader
}

func NewFileSource(path string, loader *Loader) *FileSource {
	return &FileSource{path: path, loader: loader}
}

func (s *FileSource) Name() string { return "file:" + s.path }

func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	start := time.Now()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSourceUnreadable, s.path, err)
	}
	defer f.Close()

	cat, err := s.loader.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	observe("file", start, cat)
	return cat, nil
}

// ReaderSource parses an in-memory CSV document, e.g. an uploaded file.
type ReaderSource struct {
	name   string
	data   []byte
	loader *Loader
}

func NewReaderSource(name string, data []byte, loader *Loader) *ReaderSource {
	return &ReaderSource{name: name, data: data, loader: loader}
}

func (s *ReaderSource) Name() string { return "reader:" + s.name }

func (s *ReaderSource) Load(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	start := time.Now()
	cat, err := s.loader.ParseCSV(bytes.NewReader(s.data))
	if err != nil {
		return nil, err
	}
	observe("reader", start, cat)
	return cat, nil
}

// RemoteFS is the part of an SFTP session the catalog needs.
type RemoteFS interface {
	Open(path string) (io.ReadCloser, error)
	Close() error
}

// Dialer opens a new remote session.
type Dialer func(ctx context.Context) (RemoteFS, error)

// SFTPSource reads a CSV file from a remote host over SFTP. A new session is
// dialed per load and closed afterwards.
type SFTPSource struct {
	dial   Dialer
	path   string
	loader *Loader
}

func NewSFTPSource(dial Dialer, path string, loader *Loader) *SFTPSource {
	return &SFTPSource{dial: dial, path: path, loader: loader}
}

func (s *SFTPSource) Name() string { return "sftp:" + s.path }

func (s *SFTPSource) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	fs, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer fs.Close()

	f, err := fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open remote %s: %w", ErrSourceUnreadable, s.path, err)
	}
	defer f.Close()

	cat, err := s.loader.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load remote %s: %w", s.path, err)
	}
	observe("sftp", start, cat)
	return cat, nil
}

// Fetcher retrieves a document over HTTP. *http.Client from
// internal/common/http implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPSource downloads a CSV export, e.g. a published spreadsheet.
type HTTPSource struct {
	fetcher Fetcher
	url     string
	loader  *Loader
}

func NewHTTPSource(fetcher Fetcher, url string, loader *Loader) *HTTPSource {
	return &HTTPSource{fetcher: fetcher, url: url, loader: loader}
}

func (s *HTTPSource) Name() string { return "http:" + s.url }

func (s *HTTPSource) Load(ctx context.Context) (*Catalog, error) {
	start := time.Now()

	body, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer body.Close()

	cat, err := s.loader.ParseCSV(body)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.url, err)
	}
	observe("http", start, cat)
	return cat, nil
}

func observe(kind string, start time.Time, cat *Catalog) {
	metrics.CatalogLoadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.CatalogRowsLoaded.WithLabelValues(kind).Add(float64(cat.Stats.Loaded))
	for reason, n := range cat.Stats.DropReasons {
		metrics.CatalogRowsDropped.WithLabelValues(kind, reason).Add(float64(n))
	}
}
