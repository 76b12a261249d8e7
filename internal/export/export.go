// Package export renders aggregation results into the three downstream
// shapes: the JSON document, the flat line format consumed by the register
// upload, and the grouped human summary.
package export

import (
	"fmt"
	"time"

	"ashaworks/internal/aggregate"
	"ashaworks/internal/core"
)

// FormatVersion identifies the export document layout.
const FormatVersion = "3.0"

type Metadata struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	ClientInfo    string    `json:"clientInfo,omitempty"`
	Version       string    `json:"version"`
	ConfigVersion string    `json:"configVersion"`
}

// WorkItem is the JSON form of a dated work entry. Dates serialize in ISO
// form; the flat line format applies its own DD-MM-YYYY rendering.
type WorkItem struct {
	Category     string `json:"category"`
	Code         string `json:"code"`
	Price        int64  `json:"price"`
	ServiceDate  string `json:"serviceDate"`
	RegisterDate string `json:"registerDate"`
	Count        int    `json:"count"`
	TotalPrice   int64  `json:"totalPrice"`
	Type         string `json:"type"`
}

type MonthlyItem struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Count    int    `json:"count"`
	Type     string `json:"type"`
}

type Document struct {
	Metadata    Metadata      `json:"metadata"`
	WorkData    []WorkItem    `json:"workData"`
	MonthlyData []MonthlyItem `json:"monthlyData"`
}

// NewDocument builds the export document from one aggregation run.
func NewDocument(cat *core.Catalog, res aggregate.Result, generatedAt time.Time, clientInfo string) Document {
	doc := Document{
		Metadata: Metadata{
			GeneratedAt:   generatedAt.UTC(),
			ClientInfo:    clientInfo,
			Version:       FormatVersion,
			ConfigVersion: cat.Version,
		},
		WorkData:    make([]WorkItem, 0, len(res.Work)),
		MonthlyData: make([]MonthlyItem, 0, len(res.Monthly)),
	}
	for _, e := range res.Work {
		doc.WorkData = append(doc.WorkData, WorkItem{
			Category:     e.Category,
			Code:         e.Code,
			Price:        e.UnitPrice,
			ServiceDate:  core.FormatISODate(e.ServiceDate),
			RegisterDate: core.FormatISODate(e.RegisterDate),
			Count:        e.Count,
			TotalPrice:   e.TotalPrice,
			Type:         "individual",
		})
	}
	for _, e := range res.Monthly {
		doc.MonthlyData = append(doc.MonthlyData, MonthlyItem{
			Category: e.Category,
			Code:     e.Code,
			Count:    e.Count,
			Type:     "monthly",
		})
	}
	return doc
}

// FlatLines renders the upload format: one line per dated entry as
// "CODE COUNT DD-MM-YYYY DD-MM-YYYY", then one line per monthly entry as
// "CODE COUNT" for count-bearing codes or the bare code otherwise.
func (d Document) FlatLines() ([]string, error) {
	lines := make([]string, 0, len(d.WorkData)+len(d.MonthlyData))
	for _, item := range d.WorkData {
		service, err := core.ParseISODate(item.ServiceDate)
		if err != nil {
			return nil, fmt.Errorf("parse service date for %s: %w", item.Code, err)
		}
		register, err := core.ParseISODate(item.RegisterDate)
		if err != nil {
			return nil, fmt.Errorf("parse register date for %s: %w", item.Code, err)
		}
		lines = append(lines, fmt.Sprintf("%s %d %s %s",
			item.Code, item.Count, core.FormatEntryDate(service), core.FormatEntryDate(register)))
	}
	for _, item := range d.MonthlyData {
		if core.CountBearing(item.Code) {
			lines = append(lines, fmt.Sprintf("%s %d", item.Code, item.Count))
		} else {
			lines = append(lines, item.Code)
		}
	}
	return lines, nil
}

// Stats summarizes a document for display after generation.
type Stats struct {
	WorkEntries    int
	MonthlyEntries int
	Categories     int
	GrandTotal     int64
}

func (d Document) Stats() Stats {
	cats := make(map[string]struct{})
	var total int64
	for _, item := range d.WorkData {
		cats[item.Category] = struct{}{}
		total += item.TotalPrice
	}
	for _, item := range d.MonthlyData {
		cats[item.Category] = struct{}{}
	}
	return Stats{
		WorkEntries:    len(d.WorkData),
		MonthlyEntries: len(d.MonthlyData),
		Categories:     len(cats),
		GrandTotal:     total,
	}
}
