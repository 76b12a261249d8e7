package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ashaworks/internal/core"
	"ashaworks/internal/export"
	"ashaworks/internal/log"
	"ashaworks/internal/session"
	"ashaworks/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// selectionRef names a selection target in API requests: a category alone,
// or a code within one.
type selectionRef struct {
	Category string `json:"category"`
	Code     string `json:"code,omitempty"`
}

func (ref selectionRef) key() session.Key {
	if ref.Code != "" {
		return session.CodeKey(ref.Category, ref.Code)
	}
	return session.CategoryKey(ref.Category)
}

// resolveDateKey picks where a date set lives. Amount-based codes share a
// single category-level date set, so their refs collapse to the category
// key; arming any code in the category arms that shared key. Everything
// else keys dates by the reference itself.
func (s *Server) resolveDateKey(ref selectionRef) session.Key {
	cat, _ := s.snapshot()
	c, err := cat.Category(ref.Category)
	if err != nil || c.Type != core.AmountBased {
		return ref.key()
	}
	key := session.CategoryKey(ref.Category)
	for _, e := range c.Entries {
		if s.session.IsArmed(session.CodeKey(c.Key, e.Code)) {
			s.session.Arm(key)
			break
		}
	}
	return key
}

// validate checks the reference against the active catalog.
func (s *Server) validateRef(ref selectionRef) error {
	cat, _ := s.snapshot()
	c, err := cat.Category(ref.Category)
	if err != nil {
		return err
	}
	if ref.Code != "" {
		if _, err := c.Entry(ref.Code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	cat, usingFallback := s.snapshot()
	period := core.SmartDefaultPeriod(s.now())
	data := struct {
		Catalog       *core.Catalog
		UsingFallback bool
		DefaultPeriod string
		TotalCodes    int
	}{
		Catalog:       cat,
		UsingFallback: usingFallback,
		DefaultPeriod: period.String(),
		TotalCodes:    cat.TotalCodes(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "index template execution failed",
			log.FieldError, err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /api/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat, usingFallback := s.snapshot()

	type codeView struct {
		Code        string `json:"code"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	type categoryView struct {
		Key     string     `json:"key"`
		Name    string     `json:"name"`
		Type    string     `json:"type"`
		Monthly bool       `json:"monthly"`
		Codes   []codeView `json:"codes"`
	}

	out := struct {
		Version       string         `json:"version"`
		Description   string         `json:"description"`
		UsingFallback bool           `json:"usingFallback"`
		DefaultPeriod string         `json:"defaultPeriod"`
		Categories    []categoryView `json:"categories"`
	}{
		Version:       cat.Version,
		Description:   cat.Description,
		UsingFallback: usingFallback,
		DefaultPeriod: core.SmartDefaultPeriod(s.now()).String(),
	}
	for _, c := range cat.Categories {
		cv := categoryView{Key: c.Key, Name: c.Name, Type: string(c.Type), Monthly: c.Monthly}
		for _, e := range c.Entries {
			cv.Codes = append(cv.Codes, codeView{Code: e.Code, Amount: e.Amount, Description: e.Description})
		}
		out.Categories = append(out.Categories, cv)
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/selection/arm {category, code?, armed}
func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		selectionRef
		Armed bool `json:"armed"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validateRef(req.selectionRef); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	key := req.key()
	if req.Armed {
		s.session.Arm(key)
	} else {
		s.session.Disarm(key)
	}
	writeJSON(w, http.StatusOK, map[string]any{"armed": req.Armed, "key": key.String()})
}

// POST /api/selection/dates {category, code?, dates: ["2024-03-05", ...]}
func (s *Server) handleSetDates(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		selectionRef
		Dates []string `json:"dates"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validateRef(req.selectionRef); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := core.ParseISODate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date "+strconv.Quote(raw)+": expected YYYY-MM-DD")
			return
		}
		dates = append(dates, d)
	}

	key := s.resolveDateKey(req.selectionRef)
	if err := s.session.SetDates(key, dates); err != nil {
		var selErr *session.SelectionRequiredError
		if errors.As(err, &selErr) {
			writeError(w, http.StatusConflict, selErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.datesView(key))
}

// POST /api/selection/dates/remove {category, code?, date}
func (s *Server) handleRemoveDate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		selectionRef
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := core.ParseISODate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return
	}
	key := s.resolveDateKey(req.selectionRef)
	s.session.RemoveDate(key, d)
	writeJSON(w, http.StatusOK, s.datesView(key))
}

// POST /api/selection/count {category, code?, date?, count}
// With a date the count applies to that date entry; without one it sets the
// code-level count used by amount-based and monthly codes.
func (s *Server) handleSetCount(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req struct {
		selectionRef
		Date  string `json:"date,omitempty"`
		Count int    `json:"count"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.validateRef(req.selectionRef); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	key := req.key()
	if req.Date != "" {
		d, err := core.ParseISODate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
			return
		}
		s.session.SetCount(key, d, req.Count)
		writeJSON(w, http.StatusOK, s.datesView(key))
		return
	}

	count := req.Count
	if rule, ok := core.MonthlyCountRule(req.Code); ok {
		count = rule.Clamp(count)
	}
	s.session.SetCodeCount(key, count)
	writeJSON(w, http.StatusOK, map[string]any{"key": key.String(), "count": s.session.CodeCount(key)})
}

// GET /api/summary
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	cat, _ := s.snapshot()
	lines := export.Summary(cat, s.session)
	writeJSON(w, http.StatusOK, map[string]any{"summary": lines})
}

// POST /api/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	cat, _ := s.snapshot()
	res, err := s.exports.Generate(r.Context(), cat, s.session, s.now(), r.Header.Get("User-Agent"))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "generate failed", log.FieldError, err.Error())
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exportId":            res.ExportID,
		"document":            res.Document,
		"flatLines":           res.FlatLines,
		"summary":             res.Summary,
		"warnings":            res.Warnings,
		"dailyTotal":          res.DailyTotal,
		"monthlyPackageTotal": res.MonthlyPackageTotal,
		"statePackageTotal":   res.StatePackageTotal,
		"grandTotal":          res.GrandTotal,
		"stats": map[string]any{
			"workEntries":    res.Stats.WorkEntries,
			"monthlyEntries": res.Stats.MonthlyEntries,
			"categories":     res.Stats.Categories,
		},
	})
}

// POST /api/clear
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s.session.Clear()
	s.logger.InfoContext(r.Context(), "selection cleared", log.FieldOperation, log.OpClear)
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// POST /api/reload discards the catalog and selection state, then loads
// fresh. Falls back to the built-in catalog if every source fails.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	cat, usingFallback := s.loader.LoadOrFallback(r.Context())
	s.swapCatalog(cat, usingFallback)
	s.logger.InfoContext(r.Context(), "catalog reloaded",
		log.FieldOperation, log.OpReload,
		"version", cat.Version,
		"fallback", usingFallback)
	writeJSON(w, http.StatusOK, map[string]any{
		"version":       cat.Version,
		"usingFallback": usingFallback,
		"categories":    len(cat.Categories),
		"codes":         cat.TotalCodes(),
	})
}

// GET /api/exports/{id}
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/exports/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid export id")
		return
	}
	rec, err := s.exports.GetExport(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrExportNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            rec.ID,
		"createdAt":     rec.CreatedAt,
		"configVersion": rec.ConfigVersion,
		"document":      json.RawMessage(rec.Document),
		"flatLines":     strings.Split(rec.FlatLines, "\n"),
		"grandTotal":    rec.GrandTotal,
		"syncStatus":    rec.SyncStatus,
		"syncError":     rec.SyncError,
	})
}

// datesView renders the current date set for a key.
func (s *Server) datesView(key session.Key) map[string]any {
	type dateView struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	var out []dateView
	for _, dc := range s.session.Dates(key) {
		out = append(out, dateView{Date: core.FormatISODate(dc.Date), Count: dc.Count})
	}
	return map[string]any{"key": key.String(), "dates": out}
}
