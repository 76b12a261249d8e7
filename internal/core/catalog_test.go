package core

import (
	"errors"
	"testing"
)

func testCatalog() *Catalog {
	return &Catalog{
		Version: "test",
		Categories: []Category{
			{
				Key:  "DELIVERY",
				Name: "Delivery Services",
				Type: FixedBundle,
				Entries: []CatalogEntry{
					{Code: "I1.4", Amount: 300, Description: "Delivery check"},
					{Code: "C1.2", Amount: 100, Description: "General check"},
				},
			},
			{
				Key:  "OTHERS",
				Name: "Other Services",
				Type: IndividualSelection,
				Entries: []CatalogEntry{
					{Code: "I2.1", Amount: 300, Description: "Operation"},
				},
			},
		},
	}
}

func TestCatalogLookups(t *testing.T) {
	cat := testCatalog()

	c, err := cat.Category("DELIVERY")
	if err != nil {
		t.Fatalf("Category(DELIVERY): %v", err)
	}
	if !c.WholeCategory() {
		t.Error("fixed_bundle should arm as a whole category")
	}

	e, err := c.Entry("C1.2")
	if err != nil {
		t.Fatalf("Entry(C1.2): %v", err)
	}
	if e.Amount != 100 {
		t.Errorf("Entry amount = %d, want 100", e.Amount)
	}

	if _, err := cat.Category("NOPE"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("unknown category error = %v, want ErrUnknownCategory", err)
	}
	if _, err := c.Entry("NOPE"); !errors.Is(err, ErrUnknownCode) {
		t.Errorf("unknown code error = %v, want ErrUnknownCode", err)
	}
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Catalog)
		wantErr error
	}{
		{
			name:   "valid catalog",
			mutate: func(c *Catalog) {},
		},
		{
			name: "invalid selection type",
			mutate: func(c *Catalog) {
				c.Categories[0].Type = "bogus"
			},
			wantErr: ErrInvalidSelectionType,
		},
		{
			name: "negative amount",
			mutate: func(c *Catalog) {
				c.Categories[0].Entries[0].Amount = -1
			},
			wantErr: ErrNegativeAmount,
		},
		{
			name: "empty category key",
			mutate: func(c *Catalog) {
				c.Categories[1].Key = "  "
			},
			wantErr: ErrEmptyCategoryKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := testCatalog()
			tt.mutate(cat)
			err := cat.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("duplicate category key", func(t *testing.T) {
		cat := testCatalog()
		cat.Categories[1].Key = cat.Categories[0].Key
		if err := cat.Validate(); err == nil {
			t.Error("Validate() = nil, want duplicate key error")
		}
	})
}

func TestMonthlyCountRule(t *testing.T) {
	tests := []struct {
		code    string
		in      int
		want    int
		bearing bool
	}{
		{CodeMonthlyLocked, 1, 5, true},
		{CodeMonthlyLocked, 99, 5, true},
		{CodePerBeneficiary, 2, 6, true},
		{CodePerBeneficiary, 20, 20, true},
		{CodePerBeneficiary, 50, 35, true},
		{CodeMonthlyMeetings, 0, 1, true},
		{CodeMonthlyMeetings, 400, 400, true},
		{"PC1.1", 7, 0, false},
	}
	for _, tt := range tests {
		rule, ok := MonthlyCountRule(tt.code)
		if ok != tt.bearing {
			t.Errorf("MonthlyCountRule(%s) bearing = %v, want %v", tt.code, ok, tt.bearing)
			continue
		}
		if !ok {
			continue
		}
		if got := rule.Clamp(tt.in); got != tt.want {
			t.Errorf("MonthlyCountRule(%s).Clamp(%d) = %d, want %d", tt.code, tt.in, got, tt.want)
		}
	}

	locked, _ := MonthlyCountRule(CodeMonthlyLocked)
	if !locked.Fixed() {
		t.Error("locked code rule should be fixed")
	}
	meetings, _ := MonthlyCountRule(CodeMonthlyMeetings)
	if meetings.Fixed() {
		t.Error("meetings rule should not be fixed")
	}
}

func TestTotalCodes(t *testing.T) {
	if got := testCatalog().TotalCodes(); got != 3 {
		t.Errorf("TotalCodes() = %d, want 3", got)
	}
}
