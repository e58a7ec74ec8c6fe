package mcpserver

// RecipeFormatContract describes the canonical recipe file format that
// LLM consumers should follow when creating or updating recipes.
const RecipeFormatContract = `# Cookbook Recipe Format Contract

Every recipe stored in Cookbook is a single UTF-8 file named ` + "`{slug}.mdx`" + `
with a YAML frontmatter header and a Markdown body.

## Structure

` + "```" + `markdown
---
title: "Oat Bowl"                   # REQUIRED – display name
slug: "oat-bowl"                    # derived from title; immutable once assigned
protein_source: "Oats"              # free-form
calories: 300                       # non-negative integer
protein_grams: 12                   # non-negative integer
time_minutes: 10                    # non-negative integer
servings: 1                        # positive integer
tags: ["quick","vegan"]             # JSON string array
meal_types: ["Breakfast"]           # subset of Breakfast, Lunch, Dinner, Snacks
image_url: null                     # public URL string, or null
date: "2024-01-01"                  # YYYY-MM-DD
---

## Ingredients
- 50g rolled oats
- 200ml milk

## Instructions
Combine and simmer for 5 minutes.
` + "```" + `

## Rules

1. The frontmatter block is mandatory and comes first.
2. ` + "`title`" + ` is required; a recipe without one is never persisted.
3. The slug is the filename stem and never changes across edits.
4. ` + "`meal_types`" + ` values outside the fixed set are dropped on save.
5. The body holds exactly two labeled sections, Ingredients then
   Instructions, each free-form Markdown.
`
