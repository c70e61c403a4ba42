package taxonomy

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/poiesic/ramanid/core"
)

// DefaultThreshold is the minimum fuzzy ratio accepted by Resolve.
const DefaultThreshold = 0.8

// Method records which lookup step resolved a name.
type Method int

const (
	MethodExact Method = iota
	MethodCleaned
	MethodSubstring
	MethodFuzzy
)

func (m Method) String() string {
	switch m {
	case MethodExact:
		return "exact"
	case MethodCleaned:
		return "cleaned"
	case MethodSubstring:
		return "substring"
	case MethodFuzzy:
		return "fuzzy"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Resolver maps mineral names to classification records.
type Resolver struct {
	index     map[string]*core.ClassificationRecord
	keys      []string // index keys by length, then lexicographically
	lowerKeys []string // lower-cased keys, parallel to keys
	threshold float64
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithThreshold sets the minimum fuzzy similarity ratio.
// Default is 0.8.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) error {
		if threshold < 0 || threshold > 1 || threshold != threshold {
			return fmt.Errorf("%w: got %g", ErrInvalidThreshold, threshold)
		}
		r.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewResolver indexes records by name and by cleaned name. Records with an
// empty name are skipped. When two records share a name the later one wins;
// a record's own name always takes precedence over another record's
// cleaned alias.
func NewResolver(records []core.ClassificationRecord, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		index:     make(map[string]*core.ClassificationRecord, len(records)*2),
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	owned := make([]core.ClassificationRecord, 0, len(records))
	for _, rec := range records {
		if err := core.ValidateClassification(&rec); err != nil {
			r.logger.Debug("skipping classification record", "error", err)
			continue
		}
		owned = append(owned, rec)
	}
	for i := range owned {
		if alias := CleanName(owned[i].Name); alias != "" {
			r.index[alias] = &owned[i]
		}
	}
	for i := range owned {
		r.index[owned[i].Name] = &owned[i]
	}

	r.keys = slices.SortedFunc(maps.Keys(r.index), func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})
	r.lowerKeys = make([]string, len(r.keys))
	for i, k := range r.keys {
		r.lowerKeys[i] = strings.ToLower(k)
	}
	r.logger.Debug("classification index built", "records", len(owned), "keys", len(r.keys))
	return r, nil
}

// Len returns the number of indexed names, aliases included.
func (r *Resolver) Len() int {
	return len(r.index)
}

// Resolve looks name up and returns the canonical record name and record.
// ok is false when no step produced a match.
func (r *Resolver) Resolve(name string) (canonical string, record *core.ClassificationRecord, ok bool) {
	canonical, record, _, ok = r.resolve(name)
	return
}

func (r *Resolver) resolve(name string) (string, *core.ClassificationRecord, Method, bool) {
	if name == "" || len(r.index) == 0 {
		return "", nil, 0, false
	}
	if rec, found := r.index[name]; found {
		return rec.Name, rec, MethodExact, true
	}

	cleaned := CleanName(name)
	if cleaned == "" {
		return "", nil, 0, false
	}
	if rec, found := r.index[cleaned]; found {
		return rec.Name, rec, MethodCleaned, true
	}

	for i, key := range r.lowerKeys {
		if strings.Contains(key, cleaned) {
			rec := r.index[r.keys[i]]
			return rec.Name, rec, MethodSubstring, true
		}
	}

	query := splitChars(cleaned)
	best, bestRatio := -1, 0.0
	for i, key := range r.lowerKeys {
		ratio := difflib.NewMatcher(query, splitChars(key)).Ratio()
		if ratio > bestRatio && ratio >= r.threshold {
			best, bestRatio = i, ratio
		}
	}
	if best < 0 {
		return "", nil, 0, false
	}
	rec := r.index[r.keys[best]]
	r.logger.Debug("fuzzy name match", "name", name, "match", r.keys[best], "ratio", bestRatio)
	return rec.Name, rec, MethodFuzzy, true
}

// splitChars turns a string into the rune sequence difflib compares.
func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, c := range s {
		out = append(out, string(c))
	}
	return out
}

// Match is the outcome of classifying a database entry name.
type Match struct {
	MineralName string // extracted from the entry name
	Canonical   string
	Record      *core.ClassificationRecord
	Method      Method
	BaseName    bool // resolved only after BaseName reduction
}

// Classify extracts the mineral name from a database entry name and
// resolves it, retrying with BaseName when the extracted name fails.
func (r *Resolver) Classify(entryName string) (Match, bool) {
	mineral := ExtractMineralName(entryName)
	if mineral == "" {
		return Match{}, false
	}
	if canonical, rec, method, ok := r.resolve(mineral); ok {
		return Match{MineralName: mineral, Canonical: canonical, Record: rec, Method: method}, true
	}
	base := BaseName(mineral)
	if base == "" || base == mineral || base == CleanName(mineral) {
		return Match{MineralName: mineral}, false
	}
	if canonical, rec, method, ok := r.resolve(base); ok {
		return Match{MineralName: mineral, Canonical: canonical, Record: rec, Method: method, BaseName: true}, true
	}
	return Match{MineralName: mineral}, false
}

// Apply writes the classification into metadata and returns it, allocating
// a map when metadata is nil. Existing extra fields are preserved; the Hey
// classification and derived chemical family are always written.
func (m Match) Apply(metadata map[string]string) map[string]string {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if m.MineralName != "" {
		metadata[core.MetaMineralName] = m.MineralName
	}
	if m.Record == nil {
		return metadata
	}
	metadata[core.MetaHeyClassification] = m.Record.HeyClassification
	metadata[core.MetaClassificationSource] = m.Canonical
	if family := ChemicalFamily(m.Record.HeyClassification); family != "" {
		metadata[core.MetaChemicalFamily] = family
	}
	for k, v := range m.Record.Extra {
		key := strings.ToUpper(k)
		if _, exists := metadata[key]; !exists && v != "" {
			metadata[key] = v
		}
	}
	return metadata
}
