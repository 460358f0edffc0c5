package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Subcategory maps a property type to the feed's t query parameter.
type Subcategory struct {
	Name string `yaml:"name"`
	T    int    `yaml:"t"`
}

// Category maps a market segment to the feed's c query parameter and lists
// the property types offered under it.
type Category struct {
	Name          string        `yaml:"name"`
	C             int           `yaml:"c"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

type categoriesFile struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCategories returns the built-in category tree for boshamlan.com:
// rent (c=1) and sale (c=2) share the same property types, exchange (c=3)
// only lists houses and plots.
func DefaultCategories() []Category {
	rentSale := []Subcategory{
		{Name: "عقارات", T: 1},
		{Name: "شقة", T: 2},
		{Name: "بيت", T: 3},
		{Name: "أرض", T: 4},
		{Name: "عمارة", T: 5},
		{Name: "شاليه", T: 6},
		{Name: "مزرعة", T: 7},
		{Name: "تجاري", T: 8},
	}
	return []Category{
		{Name: "للايجار", C: 1, Subcategories: rentSale},
		{Name: "للبيع", C: 2, Subcategories: rentSale},
		{Name: "للبدل", C: 3, Subcategories: []Subcategory{
			{Name: "بيوت للبدل", T: 3},
			{Name: "أراضي للبدل", T: 4},
		}},
	}
}

// LoadCategories reads the category tree from a YAML file, falling back to
// the built-in tree when path is empty.
func LoadCategories(path string) ([]Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("categories: read %q: %w", path, err)
	}

	var f categoriesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("categories: parse %q: %w", path, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("categories: %q defines no categories", path)
	}
	return f.Categories, nil
}
