package spectrumio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/poiesic/ramanid/core"
)

// Metadata keys added by the parser.
const (
	MetaFileName        = "file_name"
	MetaFilePath        = "file_path"
	MetaDataPoints      = "data_points"
	MetaWavenumberRange = "wavenumber_range"
	MetaComments        = "comments"
)

// Unprefixed "key: value" lines are only read as metadata near the top.
const bareMetadataLines = 20

type delimiter int

const (
	whitespace delimiter = iota
	comma
	tab
)

// Option configures parsing.
type Option func(*parser) error

// WithLogger sets the logger that reports skipped lines.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *parser) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

type parser struct {
	logger *slog.Logger
}

func newParser(opts []Option) (*parser, error) {
	p := &parser{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "spectrumio")
	return p, nil
}

// Parse reads a spectrum from r. ext is the file extension including the
// dot; ".csv" prefers commas when a row contains any.
func Parse(r io.Reader, ext string, opts ...Option) (*core.Spectrum, error) {
	p, err := newParser(opts)
	if err != nil {
		return nil, err
	}
	return p.parse(r, ext)
}

func (p *parser) parse(r io.Reader, ext string) (*core.Spectrum, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decoding latin-1: %w", err)
		}
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	var (
		s        = &core.Spectrum{Metadata: make(map[string]string)}
		comments []string
		delim    delimiter
		detected bool
		skipped  int
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if content, ok := strings.CutPrefix(line, "#"); ok {
			if comment := parseMetadata(strings.TrimSpace(content), s.Metadata); comment != "" {
				comments = append(comments, comment)
			}
			continue
		}
		if !detected {
			if lineNo <= bareMetadataLines && isBareMetadata(line) {
				parseMetadata(line, s.Metadata)
				continue
			}
			if isHeader(line) {
				continue
			}
			delim = detectDelimiter(line, ext)
			detected = true
		}

		w, y, ok := parseRow(line, delim)
		if !ok {
			skipped++
			p.logger.Debug("skipping line", "line", lineNo, "text", truncate(line, 50))
			continue
		}
		s.Wavenumbers = append(s.Wavenumbers, w)
		s.Intensities = append(s.Intensities, y)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(s.Wavenumbers) == 0 {
		return nil, ErrNoData
	}

	if len(comments) > 0 {
		s.Metadata[MetaComments] = strings.Join(comments, "\n")
	}
	s.Metadata[MetaDataPoints] = strconv.Itoa(s.Len())
	lo, hi := s.Range()
	s.Metadata[MetaWavenumberRange] = fmt.Sprintf("%.1f - %.1f cm⁻¹", lo, hi)
	if skipped > 0 {
		p.logger.Debug("skipped unparsable lines", "lines", skipped)
	}
	return s, nil
}

// parseMetadata stores "key: value" or "key = value" and returns content
// that has neither separator so it can be kept as a comment.
func parseMetadata(content string, metadata map[string]string) string {
	if content == "" {
		return ""
	}
	for _, sep := range []string{":", "="} {
		if key, value, found := strings.Cut(content, sep); found {
			if key = strings.TrimSpace(key); key != "" {
				metadata[key] = strings.TrimSpace(value)
				return ""
			}
		}
	}
	return content
}

// isBareMetadata reports whether an unprefixed line looks like
// "Key: value". A key holding digits is treated as data.
func isBareMetadata(line string) bool {
	key, _, found := strings.Cut(line, ":")
	if !found {
		key, _, found = strings.Cut(line, "=")
	}
	if !found || strings.TrimSpace(key) == "" {
		return false
	}
	return !strings.ContainsFunc(key, unicode.IsDigit)
}

// isHeader reports whether the first two fields of line are not both numbers.
func isHeader(line string) bool {
	for _, sep := range []string{",", "\t", " "} {
		fields := splitNonEmpty(line, sep)
		if len(fields) < 2 {
			continue
		}
		_, err1 := strconv.ParseFloat(fields[0], 64)
		_, err2 := strconv.ParseFloat(fields[1], 64)
		return err1 != nil || err2 != nil
	}
	return false
}

func detectDelimiter(line, ext string) delimiter {
	if strings.EqualFold(ext, ".csv") && strings.Contains(line, ",") {
		return comma
	}
	commas := strings.Count(line, ",")
	tabs := strings.Count(line, "\t")
	spaces := len(strings.Fields(line)) - 1
	switch {
	case commas > 0 && commas >= tabs && commas >= spaces:
		return comma
	case tabs > 0 && tabs >= spaces:
		return tab
	}
	return whitespace
}

func parseRow(line string, delim delimiter) (w, y float64, ok bool) {
	var fields []string
	switch delim {
	case comma:
		r := csv.NewReader(strings.NewReader(line))
		r.TrimLeadingSpace = true
		record, err := r.Read()
		if err != nil {
			return 0, 0, false
		}
		for _, f := range record {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	case tab:
		fields = splitNonEmpty(line, "\t")
	default:
		fields = strings.Fields(line)
	}
	if len(fields) < 2 {
		return 0, 0, false
	}
	var err error
	if w, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, false
	}
	if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, false
	}
	return w, y, core.AllFinite([]float64{w, y})
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
