// Package models defines the domain types for Cookbook.
package models

import (
	"regexp"
	"strings"
)

// MealTypes is the fixed set of meal type values a recipe may carry.
var MealTypes = []string{"Breakfast", "Lunch", "Dinner", "Snacks"}

// RecipeSummary is the header-only projection of a recipe, used by list
// operations without parsing the body.
type RecipeSummary struct {
	Slug          string   `json:"slug" yaml:"slug"`
	Title         string   `json:"title" yaml:"title"`
	ProteinSource string   `json:"protein_source" yaml:"protein_source"`
	Calories      int      `json:"calories" yaml:"calories"`
	ProteinGrams  int      `json:"protein_grams" yaml:"protein_grams"`
	TimeMinutes   int      `json:"time_minutes" yaml:"time_minutes"`
	Servings      int      `json:"servings" yaml:"servings"`
	Tags          []string `json:"tags" yaml:"tags"`
	MealTypes     []string `json:"meal_types" yaml:"meal_types"`
	ImageURL      *string  `json:"image_url" yaml:"image_url"`
	Date          string   `json:"date" yaml:"date"`
}

// Recipe is a recipe's full persisted state: the summary header plus the
// two labeled body sections.
type Recipe struct {
	RecipeSummary
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9_-]`)

// Slugify derives a slug from a title: lowercased, spaces to hyphens,
// everything outside [a-z0-9_-] stripped.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	return slugStripRe.ReplaceAllString(s, "")
}

// ValidMealType reports whether v is one of the fixed meal type values.
func ValidMealType(v string) bool {
	for _, m := range MealTypes {
		if m == v {
			return true
		}
	}
	return false
}
