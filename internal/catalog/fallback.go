package catalog

import "ashaworks/internal/core"

// FallbackVersion marks catalogs built from the embedded defaults rather
// than a loaded document.
const FallbackVersion = "1.0-fallback"

// Fallback returns the built-in catalog used when no configured source can
// be loaded. It covers the four daily categories; package categories are
// only available from a real catalog document.
func Fallback() *core.Catalog {
	return &core.Catalog{
		Version:     FallbackVersion,
		Description: "Built-in defaults used when no catalog source is reachable",
		Categories: []core.Category{
			{
				Key:  "DELIVERY",
				Name: "Delivery Services",
				Type: core.FixedBundle,
				Entries: []core.CatalogEntry{
					{Code: "I1.4", Amount: 300, Description: "BCG/Delivery JAANCH"},
					{Code: "C1.2", Amount: 100, Description: "General Check"},
					{Code: "C1.4", Amount: 100, Description: "IFA Supplementation [1-3]"},
					{Code: "C1.5", Amount: 100, Description: "TT Vaccination [1-2]"},
				},
			},
			{
				Key:  "BCG",
				Name: "BCG Only",
				Type: core.SingleItem,
				Entries: []core.CatalogEntry{
					{Code: "I1.4", Amount: 300, Description: "BCG/Delivery JAANCH"},
				},
			},
			{
				Key:  "TIKAKARAN",
				Name: "Immunization Services",
				Type: core.AmountBased,
				Entries: []core.CatalogEntry{
					{Code: "C3.6", Amount: 50, Description: "DPT-2 Booster [5-6 years]"},
					{Code: "C3.5", Amount: 75, Description: "DPT, OPV [2 years]"},
					{Code: "C3.4", Amount: 100, Description: "BCG-1, PENTA-3, OPV-1 [<1 year]"},
					{Code: "C4.1", Amount: 250, Description: "HBNC (Home Based Newborn Care)"},
				},
			},
			{
				Key:  "OTHERS",
				Name: "Other Services",
				Type: core.IndividualSelection,
				Entries: []core.CatalogEntry{
					{Code: "I2.1", Amount: 300, Description: "Operation"},
					{Code: "I5.3", Amount: 1150, Description: "SAARI Program"},
					{Code: "I5.4", Amount: 150, Description: "Mobile Recharge CUG Sim"},
					{Code: "I3.2", Amount: 100, Description: "POLIO Pulse Polio"},
					{Code: "I1.1", Amount: 100, Description: "ANC (Antenatal Care)"},
					{Code: "I2.5", Amount: 150, Description: "Copper-T"},
					{Code: "I2.6", Amount: 100, Description: "ANTRA"},
					{Code: "I8.17", Amount: 1000, Description: "TB Treatment"},
				},
			},
		},
	}
}
