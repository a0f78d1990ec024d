package filter

import (
	"strings"
	"unicode"

	"go-jobpilot-automation/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Strictness controls how close two postings must be to count as the same
// job when they come from different listings.
type Strictness string

const (
	//StrictnessExact: byte-equal company and title only
	StrictnessExact Strictness = "exact"
	//StrictnessNormalized: equal after case folding and accent stripping
	StrictnessNormalized Strictness = "normalized"
	//StrictnessFuzzy: normalized company plus high title token overlap
	StrictnessFuzzy Strictness = "fuzzy"
)

// fuzzy title tokens must overlap at least this much (Jaccard)
const fuzzyTitleOverlap = 0.9

type Matcher struct {
	strictness Strictness
}

func NewMatcher(strictness Strictness) Matcher {
	return Matcher{strictness: strictness}
}

// SameJob reports whether b looks like a re-listing of a. It never compares
// (source, external_id); exact-key dedup happens in the store.
func (m Matcher) SameJob(a, b models.JobPosting) bool {
	switch m.strictness {
	case StrictnessExact:
		return a.Company == b.Company && a.Title == b.Title
	case StrictnessNormalized:
		return normalizeText(a.Company) == normalizeText(b.Company) &&
			normalizeText(a.Title) == normalizeText(b.Title)
	case StrictnessFuzzy:
		if normalizeText(a.Company) != normalizeText(b.Company) {
			return false
		}
		return titleOverlap(a.Title, b.Title) >= fuzzyTitleOverlap
	default:
		return false
	}
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(strings.TrimSpace(result))
}

func titleOverlap(a, b string) float64 {
	ta := mapset.NewSet(strings.Fields(normalizeText(a))...)
	tb := mapset.NewSet(strings.Fields(normalizeText(b))...)
	union := ta.Union(tb).Cardinality()
	if union == 0 {
		return 0
	}
	return float64(ta.Intersect(tb).Cardinality()) / float64(union)
}
