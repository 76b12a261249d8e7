package catalog

import (
	"strings"
	"testing"

	"ashaworks/internal/core"
)

const jsonDoc = `{
  "metadata": {"version": "2.1", "description": "test catalog"},
  "categories": {
    "TIKAKARAN": {
      "name": "Tikakaran",
      "type": "amount_based",
      "codes": [{"code": "C3.6", "amount": 50, "description": "Vaccination"}]
    },
    "DELIVERY": {
      "name": "Delivery Services",
      "type": "fixed_bundle",
      "codes": [
        {"code": "I1.4", "amount": 300, "description": "Delivery check"},
        {"code": "C1.2", "amount": 100, "description": "General check"}
      ]
    },
    "MONTHLY_PACKAGE": {
      "name": "Monthly Package",
      "type": "individual_selection",
      "codes": [{"code": "PC1.1", "amount": 200, "description": "Survey"}]
    }
  }
}`

const yamlDoc = `
metadata:
  version: "2.1"
  description: test catalog
categories:
  DELIVERY:
    name: Delivery Services
    type: fixed_bundle
    codes:
      - code: I1.4
        amount: 300
        description: Delivery check
`

func TestDecodeJSON(t *testing.T) {
	cat, err := Decode([]byte(jsonDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cat.Version != "2.1" {
		t.Errorf("version = %q, want 2.1", cat.Version)
	}
	if len(cat.Categories) != 3 {
		t.Fatalf("len(Categories) = %d, want 3", len(cat.Categories))
	}

	// Map order is restored: daily categories first, packages last.
	var keys []string
	for _, c := range cat.Categories {
		keys = append(keys, c.Key)
	}
	want := "DELIVERY,TIKAKARAN,MONTHLY_PACKAGE"
	if got := strings.Join(keys, ","); got != want {
		t.Errorf("category order = %s, want %s", got, want)
	}

	monthly, err := cat.Category(core.MonthlyPackageCategory)
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if !monthly.Monthly {
		t.Error("monthly package category should carry the monthly flag")
	}
	daily, _ := cat.Category("DELIVERY")
	if daily.Monthly {
		t.Error("delivery category should not carry the monthly flag")
	}
}

func TestDecodeYAML(t *testing.T) {
	cat, err := Decode([]byte(yamlDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c, err := cat.Category("DELIVERY")
	if err != nil {
		t.Fatalf("Category: %v", err)
	}
	if c.Type != core.FixedBundle || len(c.Entries) != 1 || c.Entries[0].Amount != 300 {
		t.Errorf("decoded category = %+v", c)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"garbage", "{{{not a document"},
		{"no categories", `{"metadata": {"version": "1"}, "categories": {}}`},
		{"bad selection type", `{"categories": {"X": {"name": "X", "type": "bogus", "codes": []}}}`},
		{"negative amount", `{"categories": {"X": {"name": "X", "type": "single_item", "codes": [{"code": "A", "amount": -5}]}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.doc)); err == nil {
				t.Error("Decode = nil error, want failure")
			}
		})
	}
}

func TestUnknownKeysSortBetweenDailyAndPackages(t *testing.T) {
	doc := `{
  "categories": {
    "ZEBRA": {"name": "Z", "type": "single_item", "codes": [{"code": "Z1", "amount": 10}]},
    "STATE_PACKAGE": {"name": "State", "type": "individual_selection", "codes": [{"code": "S1.1", "amount": 1000}]},
    "OTHERS": {"name": "Others", "type": "individual_selection", "codes": [{"code": "I2.1", "amount": 300}]}
  }
}`
	cat, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var keys []string
	for _, c := range cat.Categories {
		keys = append(keys, c.Key)
	}
	if got := strings.Join(keys, ","); got != "OTHERS,ZEBRA,STATE_PACKAGE" {
		t.Errorf("category order = %s, want OTHERS,ZEBRA,STATE_PACKAGE", got)
	}
}

func TestFallbackCatalogIsValid(t *testing.T) {
	cat := Fallback()
	if err := cat.Validate(); err != nil {
		t.Fatalf("fallback catalog invalid: %v", err)
	}
	if cat.Version != FallbackVersion {
		t.Errorf("fallback version = %q, want %q", cat.Version, FallbackVersion)
	}
	if len(cat.Categories) != 4 {
		t.Errorf("fallback categories = %d, want 4", len(cat.Categories))
	}
	if cat.TotalCodes() == 0 {
		t.Error("fallback catalog has no codes")
	}
	for _, c := range cat.Categories {
		if c.Monthly {
			t.Errorf("fallback category %s should not be monthly", c.Key)
		}
	}
}
