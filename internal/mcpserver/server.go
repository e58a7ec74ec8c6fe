// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Cookbook recipe tools for LLM integration via stdio transport.
// It is a local operator surface, so tool calls run with an
// administrator-scoped context.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/catalog"
	"github.com/mayri/cookbook/internal/recipeservice"
)

// Server wraps the MCP server with Cookbook tools.
type Server struct {
	mcp *server.MCPServer
	svc *recipeservice.Service
}

// New creates a new MCP server with all Cookbook tools registered.
func New(svc *recipeservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Cookbook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List recipes, optionally filtered and sorted."),
		mcp.WithString("search", mcp.Description("Case-insensitive substring match on title")),
		mcp.WithString("protein", mcp.Description("Exact protein source filter")),
		mcp.WithString("min_cals", mcp.Description("Inclusive lower calorie bound")),
		mcp.WithString("max_cals", mcp.Description("Inclusive upper calorie bound")),
		mcp.WithString("meal_types", mcp.Description("Comma-separated meal types (any-of match)")),
		mcp.WithString("sort", mcp.Description("One of: newest, calories-low, calories-high")),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Read one recipe by slug, including ingredients and instructions."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("save_recipe",
		mcp.WithDescription("Create or update a recipe. Pass slug to edit an existing recipe; "+
			"omit it to derive the slug from the title. Read the format contract first via "+
			"the get_recipe_contract tool or the cookbook://recipe-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Recipe title")),
		mcp.WithString("slug", mcp.Description("Existing slug when editing")),
		mcp.WithString("protein_source", mcp.Description("Protein source")),
		mcp.WithString("calories", mcp.Description("Calories per serving")),
		mcp.WithString("protein_grams", mcp.Description("Protein grams per serving")),
		mcp.WithString("time_minutes", mcp.Description("Preparation time in minutes")),
		mcp.WithString("servings", mcp.Description("Number of servings")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("meal_types", mcp.Description("Comma-separated meal types")),
		mcp.WithString("ingredients", mcp.Description("Ingredients section, Markdown")),
		mcp.WithString("instructions", mcp.Description("Instructions section, Markdown")),
		mcp.WithString("date", mcp.Description("YYYY-MM-DD; defaults to today on create")),
		mcp.WithString("image_url", mcp.Description("Previously stored image URL to keep")),
	), s.saveRecipe)

	s.mcp.AddTool(mcp.NewTool("delete_recipe",
		mcp.WithDescription("Delete a recipe by slug. The owned image blob is removed best-effort."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug")),
	), s.deleteRecipe)

	s.mcp.AddTool(mcp.NewTool("get_recipe_contract",
		mcp.WithDescription("Returns the canonical recipe file format contract. "+
			"Call this before creating or updating recipes."),
	), s.getRecipeContract)

	// Resource: recipe format contract.
	s.mcp.AddResource(
		mcp.NewResource("cookbook://recipe-format", "Recipe Format Contract",
			mcp.WithResourceDescription("Canonical recipe file format that all records follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optString returns the named string argument, or "" when absent.
func optString(req mcp.CallToolRequest, name string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return ""
}

func optBound(req mcp.CallToolRequest, name string) *int {
	v := optString(req, name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func optInt(req mcp.CallToolRequest, name string, def int) int {
	n, err := strconv.Atoi(optString(req, name))
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filtered := catalog.Apply(summaries, catalog.Query{
		Search:      optString(req, "search"),
		Protein:     optString(req, "protein"),
		MinCalories: optBound(req, "min_cals"),
		MaxCalories: optBound(req, "max_cals"),
		MealTypes:   splitCSV(optString(req, "meal_types")),
		Sort:        optString(req, "sort"),
	})
	out, _ := json.MarshalIndent(filtered, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := recipeservice.SaveInput{
		ExistingSlug:  optString(req, "slug"),
		Title:         title,
		ProteinSource: optString(req, "protein_source"),
		Calories:      optInt(req, "calories", 0),
		ProteinGrams:  optInt(req, "protein_grams", 0),
		TimeMinutes:   optInt(req, "time_minutes", 0),
		Servings:      optInt(req, "servings", 1),
		Tags:          splitCSV(optString(req, "tags")),
		MealTypes:     splitCSV(optString(req, "meal_types")),
		Ingredients:   optString(req, "ingredients"),
		Instructions:  optString(req, "instructions"),
		Date:          optString(req, "date"),
		ImageURL:      optString(req, "image_url"),
	}

	slug, err := s.svc.Save(auth.WithAdmin(ctx), in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", slug)), nil
}

func (s *Server) deleteRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(auth.WithAdmin(ctx), slug); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", slug)), nil
}

func (s *Server) getRecipeContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "cookbook://recipe-format",
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}
