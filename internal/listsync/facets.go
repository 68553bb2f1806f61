package listsync

import (
	"sort"
	"strings"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
)

// FacetCount is one option of a filter picker.
type FacetCount struct {
	Value string
	Count int
}

// Facets are the distinct status and group values of a record set, sorted lexicographically.
type Facets struct {
	Statuses []FacetCount
	Groups   []FacetCount
}

// GroupValues returns the group options without counts.
func (f Facets) GroupValues() []string { return values(f.Groups) }

// ComputeFacets counts statuses and groups over records. Empty values are not options.
func ComputeFacets(records []models.Record) Facets {
	statuses := make(map[string]int)
	groups := make(map[string]int)
	for _, r := range records {
		if s := r.State(); s != "" {
			statuses[s]++
		}
		if g := r.Group(); g != "" {
			groups[g]++
		}
	}
	return Facets{Statuses: sortedCounts(statuses), Groups: sortedCounts(groups)}
}

// CountStatuses returns per-status totals plus [models.CountsTotalKey].
func CountStatuses(records []models.Record) map[string]int {
	counts := map[string]int{models.CountsTotalKey: len(records)}
	for _, r := range records {
		counts[r.State()]++
	}
	return counts
}

// Predicate is the client-side filter applied in [LocalMode].
type Predicate struct {
	Search string
	Status string
	Group  string
}

// Match reports whether r passes every set criterion: a case-insensitive substring of Search in one of the
// record's text fields, and equality with Status and Group.
func (p Predicate) Match(r models.Record) bool {
	if p.Status != "" && r.State() != p.Status {
		return false
	}
	if p.Group != "" && r.Group() != p.Group {
		return false
	}
	if p.Search == "" {
		return true
	}

	needle := shared.NormalizeText(p.Search)
	for _, field := range r.TextFields() {
		if strings.Contains(shared.NormalizeText(field), needle) {
			return true
		}
	}
	return false
}

// Filter returns the records matching p, preserving order.
func Filter(records []models.Record, p Predicate) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if p.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortRecords returns a stably sorted copy of records.
func SortRecords(records []models.Record, field models.SortField, order models.SortOrder) []models.Record {
	out := append([]models.Record(nil), records...)
	if field == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SortValue(field), out[j].SortValue(field)
		if order == models.Desc {
			return a > b
		}
		return a < b
	})
	return out
}

// Paginate returns page (1-based) of records and the matching metadata.
func Paginate(records []models.Record, page, size int) ([]models.Record, models.Pagination) {
	if size <= 0 {
		size = DefaultPageSize
	}
	page = max(page, 1)
	meta := models.NewPagination(len(records), page, size)

	start := min((page-1)*size, len(records))
	end := min(start+size, len(records))
	return append([]models.Record(nil), records[start:end]...), meta
}

func sortedCounts(m map[string]int) []FacetCount {
	out := make([]FacetCount, 0, len(m))
	for v, n := range m {
		out = append(out, FacetCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func values(counts []FacetCount) []string {
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Value
	}
	return out
}
