// Package catalog loads work code catalogs from configurable sources and
// falls back to a built-in catalog when no source answers.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"ashaworks/internal/core"
)

// wire types mirror the catalog document layout. Categories arrive as a map
// keyed by category key; display order is restored by displayRank below.
type wireDocument struct {
	Metadata   wireMetadata            `json:"metadata" yaml:"metadata"`
	Categories map[string]wireCategory `json:"categories" yaml:"categories"`
}

type wireMetadata struct {
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
}

type wireCategory struct {
	Name  string     `json:"name" yaml:"name"`
	Type  string     `json:"type" yaml:"type"`
	Codes []wireCode `json:"codes" yaml:"codes"`
}

type wireCode struct {
	Code        string `json:"code" yaml:"code"`
	Amount      int64  `json:"amount" yaml:"amount"`
	Description string `json:"description" yaml:"description"`
}

// displayRank fixes the on-screen category order: daily categories first in
// their traditional sequence, package categories last. Unknown keys sort
// after known ones, alphabetically.
var displayRank = map[string]int{
	"DELIVERY":                  0,
	"BCG":                       1,
	"TIKAKARAN":                 2,
	"EMERGENCY":                 3,
	"OTHERS":                    4,
	core.MonthlyPackageCategory: 100,
	core.StatePackageCategory:   101,
}

func rank(key string) int {
	if r, ok := displayRank[key]; ok {
		return r
	}
	return 50
}

// Decode parses a catalog document. JSON is tried first; anything that is
// not valid JSON is decoded as YAML.
func Decode(data []byte) (*core.Catalog, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("decode catalog: not valid JSON (%v) or YAML: %w", err, yerr)
		}
	}
	return fromWire(doc)
}

func fromWire(doc wireDocument) (*core.Catalog, error) {
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("decode catalog: no categories")
	}
	cat := &core.Catalog{
		Version:     doc.Metadata.Version,
		Description: doc.Metadata.Description,
	}
	keys := make([]string, 0, len(doc.Categories))
	for key := range doc.Categories {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	for _, key := range keys {
		wc := doc.Categories[key]
		c := core.Category{
			Key:     key,
			Name:    wc.Name,
			Type:    core.SelectionType(wc.Type),
			Monthly: key == core.MonthlyPackageCategory || key == core.StatePackageCategory,
		}
		for _, code := range wc.Codes {
			c.Entries = append(c.Entries, core.CatalogEntry{
				Code:        code.Code,
				Amount:      code.Amount,
				Description: code.Description,
			})
		}
		cat.Categories = append(cat.Categories, c)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return cat, nil
}
