package filter

import (
	"math"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poiesic/ramanid/core"
)

// DefaultTolerance is the peak position tolerance in cm⁻¹ used when
// Criteria.Tolerance is not positive.
const DefaultTolerance = 10.0

// Criteria selects database entries. Zero values disable a criterion.
type Criteria struct {
	PeakPositions     []float64 // every position needs a peak within Tolerance
	Tolerance         float64
	ChemicalFamily    string // case-insensitive substring
	HeyClassification string // case-insensitive substring
	OnlyElements      []string
	RequiredElements  []string
	ExcludeElements   []string
}

// Normalize returns a copy with element symbols upper-cased and trimmed,
// text criteria trimmed, and the default tolerance applied.
func (c Criteria) Normalize() Criteria {
	out := c
	if !(out.Tolerance > 0) {
		out.Tolerance = DefaultTolerance
	}
	out.ChemicalFamily = strings.TrimSpace(c.ChemicalFamily)
	out.HeyClassification = strings.TrimSpace(c.HeyClassification)
	out.OnlyElements = normalizeElements(c.OnlyElements)
	out.RequiredElements = normalizeElements(c.RequiredElements)
	out.ExcludeElements = normalizeElements(c.ExcludeElements)
	return out
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return len(c.PeakPositions) == 0 && !c.hasMetadataCriteria()
}

// IsPeakOnly reports whether peak positions are the only criterion. Such a
// search returns every passing entry without similarity scoring.
func (c Criteria) IsPeakOnly() bool {
	return len(c.PeakPositions) > 0 && !c.hasMetadataCriteria()
}

func (c Criteria) hasMetadataCriteria() bool {
	return c.ChemicalFamily != "" || c.HeyClassification != "" || c.hasElementCriteria()
}

func (c Criteria) hasElementCriteria() bool {
	return len(c.OnlyElements) > 0 || len(c.RequiredElements) > 0 || len(c.ExcludeElements) > 0
}

// Passes reports whether entry satisfies every criterion. Criteria should be
// normalized first; Passes does not normalize on each call.
func Passes(entry *core.DatabaseEntry, c *Criteria) bool {
	if entry == nil {
		return false
	}
	if len(c.PeakPositions) > 0 && !peaksMatch(entry.PeakPositions(), c.PeakPositions, c.Tolerance) {
		return false
	}
	if c.ChemicalFamily != "" && !containsFold(Lookup(entry.Metadata, core.MetaChemicalFamily), c.ChemicalFamily) {
		return false
	}
	if c.HeyClassification != "" && !containsFold(Lookup(entry.Metadata, core.MetaHeyClassification), c.HeyClassification) {
		return false
	}
	if c.hasElementCriteria() {
		elements := Elements(entry.Metadata)
		if len(elements) == 0 {
			return false
		}
		if len(c.OnlyElements) > 0 && !subset(elements, c.OnlyElements) {
			return false
		}
		if len(c.RequiredElements) > 0 && !superset(elements, c.RequiredElements) {
			return false
		}
		if len(c.ExcludeElements) > 0 && intersects(elements, c.ExcludeElements) {
			return false
		}
	}
	return true
}

// Apply returns the entries that pass c, preserving order.
func Apply(entries []*core.DatabaseEntry, c Criteria) []*core.DatabaseEntry {
	c = c.Normalize()
	out := make([]*core.DatabaseEntry, 0, len(entries))
	for _, e := range entries {
		if Passes(e, &c) {
			out = append(out, e)
		}
	}
	return out
}

func peaksMatch(have, want []float64, tolerance float64) bool {
	if len(have) == 0 {
		return false
	}
	for _, w := range want {
		found := false
		for _, h := range have {
			if math.Abs(h-w) <= tolerance {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(value, needle string) bool {
	if value == "" {
		return false
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

var titleCaser = cases.Title(language.Und)

// KeyVariants returns the spellings under which a well known metadata key
// appears in imported data: upper case, title case, and the underscore forms
// of both.
func KeyVariants(key string) []string {
	upper := strings.ToUpper(key)
	title := titleCaser.String(strings.ToLower(key))
	variants := make([]string, 0, 4)
	for _, v := range []string{
		upper,
		title,
		strings.ReplaceAll(upper, " ", "_"),
		strings.ReplaceAll(title, " ", "_"),
	} {
		if !slices.Contains(variants, v) {
			variants = append(variants, v)
		}
	}
	return variants
}

// Lookup returns the first non-empty value stored under any variant of key.
func Lookup(metadata map[string]string, key string) string {
	if len(metadata) == 0 {
		return ""
	}
	for _, k := range KeyVariants(key) {
		if v := strings.TrimSpace(metadata[k]); v != "" {
			return v
		}
	}
	return ""
}

var elementPattern = regexp.MustCompile(`[A-Z][a-z]?`)

// Elements returns the upper-cased element symbols of an entry. The comma
// separated chemistry elements field is preferred; otherwise symbols are
// extracted from the formula.
func Elements(metadata map[string]string) []string {
	if listed := Lookup(metadata, core.MetaChemistryElements); listed != "" {
		return normalizeElements(strings.Split(listed, ","))
	}
	if formula := Lookup(metadata, core.MetaFormula); formula != "" {
		return normalizeElements(elementPattern.FindAllString(formula, -1))
	}
	return nil
}

// normalizeElements upper-cases, trims, sorts and deduplicates symbols.
func normalizeElements(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.ToUpper(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func subset(have, allowed []string) bool {
	for _, e := range have {
		if !slices.Contains(allowed, e) {
			return false
		}
	}
	return true
}

func superset(have, required []string) bool {
	return subset(required, have)
}

func intersects(have, excluded []string) bool {
	for _, e := range have {
		if slices.Contains(excluded, e) {
			return true
		}
	}
	return false
}
