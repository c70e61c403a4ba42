package spectrumio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/ramanid/core"
	"github.com/poiesic/ramanid/filter"
)

// DefaultConcurrency bounds the number of files read at once by ReadFiles.
const DefaultConcurrency = 8

// ReadFile parses the spectrum file at path and records its name and path
// in the metadata.
func ReadFile(path string, opts ...Option) (*core.Spectrum, error) {
	p, err := newParser(opts)
	if err != nil {
		return nil, err
	}
	return p.readFile(path)
}

func (p *parser) readFile(path string) (*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := p.parse(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Metadata[MetaFileName] = filepath.Base(path)
	s.Metadata[MetaFilePath] = path
	return s, nil
}

// ReadFiles reads paths concurrently, at most limit at a time
// (DefaultConcurrency when limit <= 0). Results are ordered like paths.
// The first error cancels the remaining reads.
func ReadFiles(ctx context.Context, paths []string, limit int, opts ...Option) ([]*core.Spectrum, error) {
	p, err := newParser(opts)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	spectra := make([]*core.Spectrum, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := p.readFile(path)
			if err != nil {
				return err
			}
			spectra[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return spectra, nil
}

// EntryName derives a database entry name from a file path: the base name
// without its extension.
func EntryName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MetaPeaks holds peak values exported by older libraries, either sample
// indices or wavenumbers, separated by commas or spaces.
const MetaPeaks = "PEAKS"

// NewEntry wraps a parsed spectrum as a database entry. Peaks listed under
// MetaPeaks are carried over; otherwise they are left for ingestion to
// detect. Unparsable peak lists are ignored.
func NewEntry(name string, s *core.Spectrum) *core.DatabaseEntry {
	entry := &core.DatabaseEntry{
		Name:        name,
		Wavenumbers: s.Wavenumbers,
		Intensities: s.Intensities,
		Metadata:    s.Metadata,
	}
	if raw := filter.Lookup(s.Metadata, MetaPeaks); raw != "" {
		if values, ok := parsePeakList(raw); ok {
			entry.Peaks = core.LegacyPeakData(values, s.Wavenumbers)
		}
	}
	return entry
}

func parsePeakList(raw string) ([]float64, bool) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, len(values) > 0
}
