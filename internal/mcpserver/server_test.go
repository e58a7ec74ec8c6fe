package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mayri/cookbook/internal/models"
	"github.com/mayri/cookbook/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc, _, _ := testutil.TestService(t)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so call the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_recipes":
		result, err = srv.listRecipes(ctx, req)
	case "get_recipe":
		result, err = srv.getRecipe(ctx, req)
	case "save_recipe":
		result, err = srv.saveRecipe(ctx, req)
	case "delete_recipe":
		result, err = srv.deleteRecipe(ctx, req)
	case "get_recipe_contract":
		result, err = srv.getRecipeContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndGetRecipe(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_recipe", map[string]interface{}{
		"title":          "Oat Bowl",
		"protein_source": "Oats",
		"calories":       "300",
		"servings":       "1",
		"meal_types":     "Breakfast, Second Breakfast",
		"ingredients":    "- 1 cup oats",
		"instructions":   "Soak overnight.",
		"date":           "2024-01-01",
	})
	if text := resultText(r); text != "saved: oat-bowl" {
		t.Errorf("save result = %q", text)
	}

	r = callTool(t, srv, "get_recipe", map[string]interface{}{"slug": "oat-bowl"})
	var rec models.Recipe
	if err := json.Unmarshal([]byte(resultText(r)), &rec); err != nil {
		t.Fatalf("get result is not JSON: %v", err)
	}
	if rec.Title != "Oat Bowl" || rec.Calories != 300 || rec.Ingredients != "- 1 cup oats" {
		t.Errorf("recipe = %+v", rec)
	}
	if len(rec.MealTypes) != 1 || rec.MealTypes[0] != "Breakfast" {
		t.Errorf("meal_types = %v, unknown values should be dropped", rec.MealTypes)
	}
}

func TestSaveRecipe_EditBySlug(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "save_recipe", map[string]interface{}{"title": "Original"})
	r := callTool(t, srv, "save_recipe", map[string]interface{}{
		"title": "Renamed",
		"slug":  "original",
	})
	if text := resultText(r); text != "saved: original" {
		t.Errorf("edit result = %q, slug must not change", text)
	}
}

func TestSaveRecipe_MissingTitle(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "save_recipe", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without a title")
	}
}

func TestListRecipes_Filtered(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "save_recipe", map[string]interface{}{"title": "Oat Bowl", "calories": "300"})
	callTool(t, srv, "save_recipe", map[string]interface{}{"title": "Steak", "calories": "600"})

	r := callTool(t, srv, "list_recipes", map[string]interface{}{"min_cals": "400"})
	var summaries []models.RecipeSummary
	if err := json.Unmarshal([]byte(resultText(r)), &summaries); err != nil {
		t.Fatalf("list result is not JSON: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Slug != "steak" {
		t.Errorf("summaries = %+v", summaries)
	}
}

func TestGetRecipeMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_recipe", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error for missing recipe")
	}
}

func TestDeleteRecipe(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "save_recipe", map[string]interface{}{"title": "Doomed"})
	r := callTool(t, srv, "delete_recipe", map[string]interface{}{"slug": "doomed"})
	if text := resultText(r); text != "deleted: doomed" {
		t.Errorf("delete result = %q", text)
	}

	r = callTool(t, srv, "delete_recipe", map[string]interface{}{"slug": "doomed"})
	if !r.IsError {
		t.Error("expected error deleting a missing recipe")
	}
}

func TestGetRecipeContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_recipe_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "## Ingredients") || !strings.Contains(text, "## Instructions") {
		t.Errorf("contract = %q, want section headings documented", text)
	}
}
