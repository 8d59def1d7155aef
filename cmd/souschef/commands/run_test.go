package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRecipeInline(t *testing.T) {
	got, err := resolveRecipe("Boil pasta for 9 minutes.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Boil pasta for 9 minutes." {
		t.Fatalf("inline recipe mangled: %q", got)
	}
}

func TestResolveRecipeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.md")
	if err := os.WriteFile(path, []byte("# Carbonara\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := resolveRecipe("@" + path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Carbonara\n" {
		t.Fatalf("file recipe mangled: %q", got)
	}
}

func TestResolveRecipeMissingFile(t *testing.T) {
	if _, err := resolveRecipe("@/does/not/exist.md"); err == nil {
		t.Fatal("expected an error for a missing recipe file")
	}
}
