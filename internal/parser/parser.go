// Package parser encodes and decodes recipe files: YAML frontmatter
// between --- delimiters followed by a Markdown body with labeled
// Ingredients and Instructions sections.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mayri/cookbook/internal/models"
)

const delim = "---"

// DecodeError reports a record file that could not be decoded into a
// fully-populated recipe.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parser: %s: %v", e.Reason, e.Err)
	}
	return "parser: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeSummary parses only the frontmatter header of a record file.
// fallbackSlug (usually the filename stem) is used when the header omits
// the slug field.
func DecodeSummary(data []byte, fallbackSlug string) (*models.RecipeSummary, error) {
	header, _, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	return decodeHeader(header, fallbackSlug)
}

// Decode parses a full record file, header and body.
func Decode(data []byte, fallbackSlug string) (*models.Recipe, error) {
	header, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	summary, err := decodeHeader(header, fallbackSlug)
	if err != nil {
		return nil, err
	}
	ingredients, instructions := SplitSections(body)
	return &models.Recipe{
		RecipeSummary: *summary,
		Ingredients:   ingredients,
		Instructions:  instructions,
	}, nil
}

// Encode serializes a recipe to the canonical on-disk form. String values
// are JSON-quoted (valid YAML double-quoted scalars), list values are JSON
// arrays, an absent image URL is written as null.
func Encode(r *models.Recipe) []byte {
	var b strings.Builder
	b.WriteString(delim + "\n")
	fmt.Fprintf(&b, "title: %s\n", jsonString(r.Title))
	fmt.Fprintf(&b, "slug: %s\n", jsonString(r.Slug))
	fmt.Fprintf(&b, "protein_source: %s\n", jsonString(r.ProteinSource))
	fmt.Fprintf(&b, "calories: %d\n", r.Calories)
	fmt.Fprintf(&b, "protein_grams: %d\n", r.ProteinGrams)
	fmt.Fprintf(&b, "time_minutes: %d\n", r.TimeMinutes)
	fmt.Fprintf(&b, "servings: %d\n", r.Servings)
	fmt.Fprintf(&b, "tags: %s\n", jsonArray(r.Tags))
	fmt.Fprintf(&b, "meal_types: %s\n", jsonArray(r.MealTypes))
	if r.ImageURL != nil {
		fmt.Fprintf(&b, "image_url: %s\n", jsonString(*r.ImageURL))
	} else {
		b.WriteString("image_url: null\n")
	}
	fmt.Fprintf(&b, "date: %s\n", jsonString(r.Date))
	b.WriteString(delim + "\n")
	b.WriteString("\n## Ingredients\n")
	b.WriteString(r.Ingredients)
	b.WriteString("\n\n## Instructions\n")
	b.WriteString(r.Instructions)
	b.WriteString("\n")
	return []byte(b.String())
}

// splitFrontmatter separates the YAML header from the Markdown body.
// A record file without a complete frontmatter block is malformed.
func splitFrontmatter(data []byte) ([]byte, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", &DecodeError{Reason: "missing frontmatter delimiter"}
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", &DecodeError{Reason: "unterminated frontmatter block"}
	}
	header := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")
	return header, body, nil
}

// decodeHeader strictly decodes frontmatter into a summary and applies
// the documented defaults for optional fields.
func decodeHeader(header []byte, fallbackSlug string) (*models.RecipeSummary, error) {
	var s models.RecipeSummary
	if err := yaml.Unmarshal(header, &s); err != nil {
		return nil, &DecodeError{Reason: "invalid frontmatter", Err: err}
	}
	if s.Slug == "" {
		s.Slug = fallbackSlug
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.MealTypes == nil {
		s.MealTypes = []string{}
	}
	if s.Servings <= 0 {
		s.Servings = 1
	}
	return &s, nil
}

// SplitSections extracts the Ingredients and Instructions sections from a
// record body. Content before the first heading, or a body with no
// headings at all, lands in Ingredients.
func SplitSections(body string) (ingredients, instructions string) {
	const (
		ingHeading   = "## Ingredients"
		instrHeading = "## Instructions"
	)
	var ing, instr []string
	cur := &ing
	for _, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case ingHeading:
			cur = &ing
		case instrHeading:
			cur = &instr
		default:
			*cur = append(*cur, line)
		}
	}
	return strings.TrimSpace(strings.Join(ing, "\n")), strings.TrimSpace(strings.Join(instr, "\n"))
}

func jsonString(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}

func jsonArray(vals []string) string {
	if vals == nil {
		vals = []string{}
	}
	out, _ := json.Marshal(vals)
	return string(out)
}
