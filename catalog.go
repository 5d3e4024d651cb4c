package pdftakeoff

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Catalog maps a product category to the products available in it.
type Catalog map[string][]Product

// LoadCatalog reads a YAML catalog of the form
//
//	flooring:
//	  - name: Oak parquet
//	    unitPrice: 42.5
//	    unit: m²
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog")
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML catalog. Each product's Category is set from
// the key it is listed under.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	for category, products := range catalog {
		for i := range products {
			products[i].Category = category
		}
	}
	return catalog, nil
}

// Categories returns the category names in sorted order.
func (c Catalog) Categories() []string {
	categories := make([]string, 0, len(c))
	for category := range c {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Lookup finds a product by category and name.
func (c Catalog) Lookup(category, name string) (Product, bool) {
	for _, p := range c[category] {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}
