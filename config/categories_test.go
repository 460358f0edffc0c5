package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCategoriesShape(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) != 3 {
		t.Fatalf("got %d categories; want 3", len(cats))
	}

	rent := cats[0]
	if rent.Name != "للايجار" || rent.C != 1 {
		t.Errorf("first category = %q c=%d; want للايجار c=1", rent.Name, rent.C)
	}
	if len(rent.Subcategories) != 8 {
		t.Errorf("rent subcategories = %d; want 8", len(rent.Subcategories))
	}
	for i, sub := range rent.Subcategories {
		if sub.T != i+1 {
			t.Errorf("rent subcategory %d has t=%d; want %d", i, sub.T, i+1)
		}
	}

	if cats[1].C != 2 || len(cats[1].Subcategories) != 8 {
		t.Errorf("sale category c=%d with %d subcategories", cats[1].C, len(cats[1].Subcategories))
	}

	exchange := cats[2]
	if exchange.C != 3 || len(exchange.Subcategories) != 2 {
		t.Errorf("exchange category c=%d with %d subcategories; want c=3 with 2", exchange.C, len(exchange.Subcategories))
	}
}

func TestLoadCategoriesEmptyPath(t *testing.T) {
	cats, err := LoadCategories("")
	if err != nil {
		t.Fatalf("LoadCategories returned error: %v", err)
	}
	if len(cats) != 3 {
		t.Errorf("empty path should yield the built-in tree, got %d categories", len(cats))
	}
}

func TestLoadCategoriesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	yaml := `categories:
  - name: للايجار
    c: 1
    subcategories:
      - name: شقة
        t: 2
      - name: بيت
        t: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cats, err := LoadCategories(path)
	if err != nil {
		t.Fatalf("LoadCategories returned error: %v", err)
	}
	if len(cats) != 1 {
		t.Fatalf("got %d categories; want 1", len(cats))
	}
	if cats[0].Name != "للايجار" || cats[0].C != 1 {
		t.Errorf("category = %q c=%d", cats[0].Name, cats[0].C)
	}
	if len(cats[0].Subcategories) != 2 || cats[0].Subcategories[1].T != 3 {
		t.Errorf("subcategories = %+v", cats[0].Subcategories)
	}
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	if _, err := LoadCategories(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadCategoriesEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, []byte("categories: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCategories(path); err == nil {
		t.Fatal("expected an error for an empty category list")
	}
}
