package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ashaworks/internal/catalog"
	"ashaworks/internal/core"
	applog "ashaworks/internal/log"
	"ashaworks/internal/services"
	"ashaworks/internal/session"
	"ashaworks/internal/storage"
)

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func testCatalog() *core.Catalog {
	return &core.Catalog{
		Version: "3.2",
		Categories: []core.Category{
			{
				Key:  "DELIVERY",
				Name: "Delivery Services",
				Type: core.FixedBundle,
				Entries: []core.CatalogEntry{
					{Code: "I1.4", Amount: 300, Description: "Delivery check"},
					{Code: "C1.2", Amount: 100, Description: "General check"},
				},
			},
			{
				Key:  "TIKAKARAN",
				Name: "Tikakaran",
				Type: core.AmountBased,
				Entries: []core.CatalogEntry{
					{Code: "C3.6", Amount: 50, Description: "Vaccination"},
				},
			},
			{
				Key:  "OTHERS",
				Name: "Other Services",
				Type: core.IndividualSelection,
				Entries: []core.CatalogEntry{
					{Code: "I2.1", Amount: 300, Description: "Operation"},
				},
			},
			{
				Key:     core.MonthlyPackageCategory,
				Name:    "Monthly Package",
				Type:    core.IndividualSelection,
				Monthly: true,
				Entries: []core.CatalogEntry{
					{Code: core.CodePerBeneficiary, Amount: 25, Description: "Per beneficiary"},
				},
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := testLogger()
	archive := storage.NewMemoryRepository()
	exports := services.NewExportService(archive, nil, logger)
	loader := catalog.NewLoader([]string{"/does/not/exist.json"}, logger)

	srv := NewServer(":0", testCatalog(), false, loader, session.New(), exports, logger)
	srv.now = func() time.Time {
		return time.Date(2024, time.March, 25, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d, want 200", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz = %d, want 200", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Delivery Services", "Tikakaran", "Monthly Package"} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %q", want)
		}
	}

	if rec := doJSON(t, srv, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/catalog = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["version"] != "3.2" {
		t.Errorf("catalog version = %v, want 3.2", body["version"])
	}
	cats := body["categories"].([]any)
	if len(cats) != 4 {
		t.Errorf("categories = %d, want 4", len(cats))
	}
}

func TestArmValidatesAgainstCatalog(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "DELIVERY", "armed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("arm DELIVERY = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "NOPE", "armed": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("arm unknown category = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "OTHERS", "code": "NOPE", "armed": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("arm unknown code = %d, want 404", rec.Code)
	}
}

func TestSetDatesRequiresArming(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/selection/dates",
		map[string]any{"category": "DELIVERY", "dates": []string{"2024-03-10"}})
	if rec.Code != http.StatusConflict {
		t.Errorf("dates before arm = %d, want 409", rec.Code)
	}
}

func TestSetDatesRejectsBadDate(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "DELIVERY", "armed": true})
	rec := doJSON(t, srv, http.MethodPost, "/api/selection/dates",
		map[string]any{"category": "DELIVERY", "dates": []string{"10-03-2024"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date = %d, want 400", rec.Code)
	}
}

func TestAmountBasedDatesShareCategorySet(t *testing.T) {
	srv := newTestServer(t)

	// Arm one amount-based code, then attach dates through the code ref;
	// they land on the shared category set.
	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "TIKAKARAN", "code": "C3.6", "armed": true})
	rec := doJSON(t, srv, http.MethodPost, "/api/selection/dates",
		map[string]any{"category": "TIKAKARAN", "code": "C3.6", "dates": []string{"2024-03-12"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("amount-based dates = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["key"] != "TIKAKARAN" {
		t.Errorf("dates stored under key %v, want TIKAKARAN", body["key"])
	}
}

func TestMonthlyCountClampedInResponse(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": core.MonthlyPackageCategory, "code": core.CodePerBeneficiary, "armed": true})
	rec := doJSON(t, srv, http.MethodPost, "/api/selection/count",
		map[string]any{"category": core.MonthlyPackageCategory, "code": core.CodePerBeneficiary, "count": 99})
	if rec.Code != http.StatusOK {
		t.Fatalf("set count = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if got := body["count"].(float64); got != 35 {
		t.Errorf("count = %v, want clamped 35", got)
	}
}

func TestGenerateFullFlow(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "DELIVERY", "armed": true})
	doJSON(t, srv, http.MethodPost, "/api/selection/dates",
		map[string]any{"category": "DELIVERY", "dates": []string{"2024-03-10"}})
	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": core.MonthlyPackageCategory, "code": core.CodePerBeneficiary, "armed": true})
	doJSON(t, srv, http.MethodPost, "/api/selection/count",
		map[string]any{"category": core.MonthlyPackageCategory, "code": core.CodePerBeneficiary, "count": 10})

	rec := doJSON(t, srv, http.MethodPost, "/api/generate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)

	if body["dailyTotal"].(float64) != 400 {
		t.Errorf("dailyTotal = %v, want 400", body["dailyTotal"])
	}
	if body["monthlyPackageTotal"].(float64) != 250 {
		t.Errorf("monthlyPackageTotal = %v, want 250 (25 x 10)", body["monthlyPackageTotal"])
	}
	if body["grandTotal"].(float64) != 650 {
		t.Errorf("grandTotal = %v, want 650", body["grandTotal"])
	}

	lines := body["flatLines"].([]any)
	if len(lines) != 3 {
		t.Fatalf("flatLines = %v, want 3 lines", lines)
	}
	if lines[0] != "I1.4 1 10-03-2024 10-03-2024" {
		t.Errorf("first flat line = %v", lines[0])
	}
	if lines[2] != "PC1.10 10" {
		t.Errorf("monthly flat line = %v", lines[2])
	}

	id := int64(body["exportId"].(float64))
	if id < 1 {
		t.Fatalf("exportId = %d, want >= 1", id)
	}

	// Archived export is retrievable.
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/exports/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get export = %d: %s", rec.Code, rec.Body.String())
	}
	archived := decodeBody(t, rec)
	if archived["syncStatus"] != storage.SyncPending {
		t.Errorf("syncStatus = %v, want %q", archived["syncStatus"], storage.SyncPending)
	}
	if archived["grandTotal"].(float64) != 650 {
		t.Errorf("archived grandTotal = %v, want 650", archived["grandTotal"])
	}
}

func TestGenerateCollectsWarnings(t *testing.T) {
	srv := newTestServer(t)

	// Armed code with no dates still generates, with a warning.
	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "OTHERS", "code": "I2.1", "armed": true})

	rec := doJSON(t, srv, http.MethodPost, "/api/generate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	warnings := body["warnings"].([]any)
	if len(warnings) != 1 || !strings.Contains(warnings[0].(string), "I2.1") {
		t.Errorf("warnings = %v, want one naming I2.1", warnings)
	}
}

func TestGetExportNotFound(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/api/exports/999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing export = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/exports/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad export id = %d, want 400", rec.Code)
	}
}

func TestClearResetsSelection(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "DELIVERY", "armed": true})
	doJSON(t, srv, http.MethodPost, "/api/selection/dates",
		map[string]any{"category": "DELIVERY", "dates": []string{"2024-03-10"}})

	if rec := doJSON(t, srv, http.MethodPost, "/api/clear", nil); rec.Code != http.StatusOK {
		t.Fatalf("clear = %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/generate", nil)
	body := decodeBody(t, rec)
	if lines := body["flatLines"].([]any); len(lines) != 0 {
		t.Errorf("flatLines after clear = %v, want none", lines)
	}
}

func TestReloadFallsBackAndResetsSession(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/selection/arm",
		map[string]any{"category": "DELIVERY", "armed": true})

	rec := doJSON(t, srv, http.MethodPost, "/api/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["usingFallback"] != true {
		t.Error("reload with no reachable sources should report fallback use")
	}
	if body["version"] != catalog.FallbackVersion {
		t.Errorf("version = %v, want %q", body["version"], catalog.FallbackVersion)
	}

	// Catalog swap discards the selection.
	rec = doJSON(t, srv, http.MethodPost, "/api/generate", nil)
	if lines := decodeBody(t, rec)["flatLines"].([]any); len(lines) != 0 {
		t.Errorf("flatLines after reload = %v, want none", lines)
	}
}

func TestMutatingEndpointsRejectGet(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/api/selection/arm",
		"/api/selection/dates",
		"/api/selection/count",
		"/api/generate",
		"/api/clear",
		"/api/reload",
	} {
		if rec := doJSON(t, srv, http.MethodGet, path, nil); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s = %d, want 405", path, rec.Code)
		}
	}
}
