package taxonomy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

var cleanSuffixes = []string{
	"-type", " var.", " var ", " group", " series", " family",
	" like", " structure", " form", "-rich", "-poor",
}

var cleanPrefixes = []string{"hydro", "meta", "para", "proto", "pseudo", "ortho", "clino"}

// CleanName lower-cases name, strips the first matching descriptive suffix
// and the first matching structural prefix, drops punctuation and collapses
// whitespace. "Quartz-type" and "quartz" clean to the same value.
func CleanName(name string) string {
	cleaned := strings.TrimSpace(lowerCaser.String(name))
	if cleaned == "" {
		return ""
	}
	for _, suffix := range cleanSuffixes {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, suffix))
			break
		}
	}
	for _, prefix := range cleanPrefixes {
		if strings.HasPrefix(cleaned, prefix) && len(cleaned) > len(prefix)+1 {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			break
		}
	}
	return collapse(cleaned, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

var baseSuffixes = append(append([]string{}, cleanSuffixes...), "(syn)", "(nat)", "synthetic", "natural")

// Database naming conventions appended to a mineral name, tried in order.
var basePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?)_+r\d+`),
	regexp.MustCompile(`^(.+?)_+raman`),
	regexp.MustCompile(`^(.+?)_+\d+`),
	regexp.MustCompile(`^(.+?)_oriented`),
	regexp.MustCompile(`^(.+?)_random`),
	regexp.MustCompile(`^(.+?)_powder`),
}

// BaseName reduces name more aggressively than CleanName: every listed
// suffix and prefix is removed in turn, database decorations such as
// "_R050125", "_raman", "_532" or "_oriented" are cut off, and only
// letters and spaces are kept.
func BaseName(name string) string {
	cleaned := strings.TrimSpace(lowerCaser.String(name))
	for _, suffix := range baseSuffixes {
		if strings.HasSuffix(cleaned, suffix) {
			cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, suffix))
		}
	}
	for _, prefix := range cleanPrefixes {
		if strings.HasPrefix(cleaned, prefix) && len(cleaned) > len(prefix)+1 {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
		}
	}
	for _, re := range basePatterns {
		if m := re.FindStringSubmatch(cleaned); m != nil {
			cleaned = m[1]
			break
		}
	}
	return collapse(cleaned, unicode.IsLetter)
}

// collapse keeps runes accepted by keep plus whitespace, then joins the
// remaining words with single spaces.
func collapse(s string, keep func(rune) bool) string {
	filtered := strings.Map(func(r rune) rune {
		if keep(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(filtered), " ")
}

var rruffSuffix = regexp.MustCompile(`^([^_]+)_R`)

// ExtractMineralName returns the mineral part of a database entry name.
// "Quartz__R040031__Raman" and "Quartz_R040031" both yield "Quartz";
// otherwise the text before the first underscore is used.
func ExtractMineralName(entryName string) string {
	entryName = strings.TrimSpace(entryName)
	if before, _, found := strings.Cut(entryName, "__"); found {
		return before
	}
	if !strings.Contains(entryName, "_") {
		return entryName
	}
	if m := rruffSuffix.FindStringSubmatch(entryName); m != nil {
		return m[1]
	}
	before, _, _ := strings.Cut(entryName, "_")
	return before
}

// ChemicalFamily returns the family part of a Hey classification such as
// "Silicates - Tectosilicates", or "" when the classification has no
// family separator.
func ChemicalFamily(heyClassification string) string {
	family, _, found := strings.Cut(heyClassification, " - ")
	if !found {
		return ""
	}
	return strings.TrimSpace(family)
}
