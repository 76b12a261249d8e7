package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	FixedBundle         SelectionType = "fixed_bundle"
	SingleItem          SelectionType = "single_item"
	AmountBased         SelectionType = "amount_based"
	IndividualSelection SelectionType = "individual_selection"
)

type (
	// SelectionType governs how a category is armed and how dates attach to it.
	SelectionType string

	// CatalogEntry is one billable work code. Amount is a whole-rupee
	// incentive value, never fractional.
	CatalogEntry struct {
		Code        string
		Amount      int64
		Description string
	}

	Category struct {
		Key     string
		Name    string
		Type    SelectionType
		Monthly bool // individual_selection subtype without dates
		Entries []CatalogEntry
	}

	Catalog struct {
		Version     string
		Description string
		Categories  []Category
	}
)

var (
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownCode          = errors.New("unknown code")
	ErrEmptyCategoryKey     = errors.New("empty category key")
	ErrInvalidSelectionType = errors.New("invalid selection type")
	ErrNegativeAmount       = errors.New("negative amount")
)

func (t SelectionType) Valid() bool {
	switch t {
	case FixedBundle, SingleItem, AmountBased, IndividualSelection:
		return true
	}
	return false
}

// WholeCategory reports whether arming applies to every code at once.
func (c Category) WholeCategory() bool {
	return c.Type == FixedBundle || c.Type == SingleItem
}

func (c Category) Entry(code string) (CatalogEntry, error) {
	for _, e := range c.Entries {
		if e.Code == code {
			return e, nil
		}
	}
	return CatalogEntry{}, fmt.Errorf("%w: %s in %s", ErrUnknownCode, code, c.Key)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return ErrEmptyCategoryKey
	}
	if !c.Type.Valid() {
		return ErrInvalidSelectionType
	}
	for _, e := range c.Entries {
		if e.Amount < 0 {
			return ErrNegativeAmount
		}
		if strings.TrimSpace(e.Code) == "" {
			return ErrUnknownCode
		}
	}
	return nil
}

func (c *Catalog) Category(key string) (Category, error) {
	for _, cat := range c.Categories {
		if cat.Key == key {
			return cat, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %s", ErrUnknownCategory, key)
}

func (c *Catalog) Validate() error {
	seen := map[string]struct{}{}
	for _, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			return err
		}
		if _, dup := seen[cat.Key]; dup {
			return errors.New("duplicate category key: " + cat.Key)
		}
		seen[cat.Key] = struct{}{}
	}
	return nil
}

// TotalCodes counts entries across all categories.
func (c *Catalog) TotalCodes() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Entries)
	}
	return n
}
