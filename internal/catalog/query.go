// Package catalog filters and sorts in-memory recipe summaries. It does
// no I/O: callers load the full record set and pass it in.
package catalog

import (
	"sort"
	"strings"

	"github.com/mayri/cookbook/internal/models"
)

// Sort keys accepted by Query. Anything else preserves input order.
const (
	SortNewest       = "newest"
	SortCaloriesLow  = "calories-low"
	SortCaloriesHigh = "calories-high"
)

// Query holds the filter and sort parameters for a catalog view. All
// filters combine with logical AND; zero values disable a filter.
type Query struct {
	Search      string
	Protein     string
	MinCalories *int
	MaxCalories *int
	MealTypes   []string
	Sort        string
}

// Apply returns the summaries matching q, in the requested order. The
// input slice is not modified.
func Apply(in []models.RecipeSummary, q Query) []models.RecipeSummary {
	out := make([]models.RecipeSummary, 0, len(in))
	for _, r := range in {
		if q.matches(r) {
			out = append(out, r)
		}
	}
	sortSummaries(out, q.Sort)
	return out
}

func (q Query) matches(r models.RecipeSummary) bool {
	if q.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(q.Search)) {
		return false
	}
	if q.Protein != "" && r.ProteinSource != q.Protein {
		return false
	}
	if q.MinCalories != nil && r.Calories < *q.MinCalories {
		return false
	}
	if q.MaxCalories != nil && r.Calories > *q.MaxCalories {
		return false
	}
	if len(q.MealTypes) > 0 && !anyMealType(r.MealTypes, q.MealTypes) {
		return false
	}
	return true
}

func anyMealType(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func sortSummaries(rs []models.RecipeSummary, key string) {
	switch key {
	case SortNewest:
		sort.SliceStable(rs, func(i, j int) bool {
			return newerThan(rs[i], rs[j])
		})
	case SortCaloriesLow:
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Calories < rs[j].Calories
		})
	case SortCaloriesHigh:
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Calories > rs[j].Calories
		})
	}
}

// newerThan orders by the composite key (has date, date descending,
// title ascending): dated records come before undated ones, and title
// breaks ties deterministically. Dates are YYYY-MM-DD, so string
// comparison is chronological.
func newerThan(a, b models.RecipeSummary) bool {
	if (a.Date != "") != (b.Date != "") {
		return a.Date != ""
	}
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return a.Title < b.Title
}
