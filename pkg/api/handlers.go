package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/template"
	"github.com/matzehuels/labelsheet/pkg/units"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Catalog
// =============================================================================

type setsResponse struct {
	Sets     []catalog.Set  `json:"sets"`
	Status   catalog.Status `json:"status"`
	CachedAt *time.Time     `json:"cached_at,omitempty"`
}

type groupedResponse struct {
	Groups   map[string][]catalog.Set `json:"groups"`
	Status   catalog.Status           `json:"status"`
	CachedAt *time.Time               `json:"cached_at,omitempty"`
}

// sets loads the catalog and applies the default filter unless ?all=true.
func (s *Server) sets(r *http.Request) ([]catalog.Set, catalog.Status, *time.Time, error) {
	res, err := s.runner.Fetcher.Sets(r.Context())
	if err != nil {
		return nil, 0, nil, err
	}
	sets := res.Value
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	if !all {
		sets = catalog.Filter(sets, catalog.DefaultFilter())
	}
	var cachedAt *time.Time
	if res.Status == catalog.Stale {
		cachedAt = &res.CachedAt
	}
	return sets, res.Status, cachedAt, nil
}

func (s *Server) listSets(w http.ResponseWriter, r *http.Request) {
	sets, status, cachedAt, err := s.sets(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, setsResponse{Sets: sets, Status: status, CachedAt: cachedAt})
}

func (s *Server) groupedSets(w http.ResponseWriter, r *http.Request) {
	sets, status, cachedAt, err := s.sets(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, groupedResponse{Groups: catalog.Group(sets), Status: status, CachedAt: cachedAt})
}

func (s *Server) cardTypes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"colors": catalog.Colors,
		"types":  catalog.CardTypesByColor(),
	})
}

// =============================================================================
// Templates
// =============================================================================

type templatesResponse struct {
	Default   string              `json:"default"`
	Unit      units.Unit          `json:"unit"`
	Templates []template.Template `json:"templates"`
}

// unitParam reads ?unit=, defaulting to points.
func unitParam(r *http.Request) (units.Unit, error) {
	v := r.URL.Query().Get("unit")
	if v == "" {
		return units.Point, nil
	}
	u, err := units.Parse(v)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "unit")
	}
	return u, nil
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	u, err := unitParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	all := s.runner.Presets.All()
	out := make([]template.Template, len(all))
	for i, t := range all {
		out[i] = t.In(u)
	}
	s.writeJSON(w, http.StatusOK, templatesResponse{
		Default:   s.runner.Presets.DefaultName(),
		Unit:      u,
		Templates: out,
	})
}

type validateRequest struct {
	Template template.Template `json:"template"`
	// Unit is the unit of every length in Template. Empty means points.
	Unit string `json:"unit,omitempty"`
}

type validateResponse struct {
	Valid        bool             `json:"valid"`
	Issues       errors.Issues    `json:"issues"`
	SlotsPerPage int              `json:"slots_per_page"`
	Fit          template.PageFit `json:"fit"`
}

func (s *Server) validateTemplate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := inPoints(req.Template, req.Unit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	issues := template.Validate(t)
	if issues == nil {
		issues = errors.Issues{}
	}
	resp := validateResponse{
		Valid:  !issues.HasBlocking(),
		Issues: issues,
		Fit:    t.Fit(),
	}
	if resp.Valid {
		resp.SlotsPerPage = t.SlotsPerPage()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func inPoints(t template.Template, unit string) (template.Template, error) {
	if unit == "" {
		return t, nil
	}
	u, err := units.Parse(unit)
	if err != nil {
		return t, errors.Wrap(errors.ErrCodeInvalidInput, err, "unit")
	}
	return t.FromUnit(u), nil
}

// =============================================================================
// Generation
// =============================================================================

// labelRequest is a pipeline request whose explicit template may be given
// in any unit.
type labelRequest struct {
	pipeline.Request
	Unit string `json:"unit,omitempty"`
}

func (s *Server) decodeLabelRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	var req labelRequest
	if err := decode(w, r, &req); err != nil {
		return pipeline.Request{}, err
	}
	if req.Template != nil {
		t, err := inPoints(*req.Template, req.Unit)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Template = &t
	}
	return req.Request, nil
}

type previewResponse struct {
	Template     template.Template `json:"template"`
	ViewMode     string            `json:"view_mode"`
	PageCount    int               `json:"page_count"`
	Labels       int               `json:"labels"`
	Placeholders int               `json:"placeholders"`
	Positions    []layout.Position `json:"positions"`
	Pages        []layout.Page     `json:"pages"`
	Warnings     []string          `json:"warnings,omitempty"`
	// Scale fits the page into the ?width=&height= container when given.
	Scale float64 `json:"scale,omitempty"`
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeLabelRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plan, err := s.runner.Plan(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := previewResponse{
		Template:     plan.Template,
		ViewMode:     plan.ViewMode,
		PageCount:    len(plan.Pages),
		Labels:       plan.Labels,
		Placeholders: plan.Placeholders,
		Positions:    plan.Positions,
		Pages:        plan.Pages,
		Warnings:     plan.Warnings,
	}
	q := r.URL.Query()
	if cw, ch := q.Get("width"), q.Get("height"); cw != "" && ch != "" {
		width, err1 := strconv.ParseFloat(cw, 64)
		height, err2 := strconv.ParseFloat(ch, 64)
		if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "width and height must be positive numbers"))
			return
		}
		resp.Scale = layout.CalculateScale(plan.Template, width, height)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeLabelRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.runner.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := result.Template.Name
	if name == "" {
		name = "labels"
	}
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", `attachment; filename="`+name+`.pdf"`)
	h.Set("Content-Length", strconv.Itoa(len(result.PDF)))
	h.Set("X-Page-Count", strconv.Itoa(result.PageCount))
	h.Set("X-Catalog-Status", result.CacheInfo.Catalog.String())
	h.Set("X-Warning-Count", strconv.Itoa(len(result.Warnings)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.PDF); err != nil {
		s.logger.Warn("write pdf", "id", RequestID(r.Context()), "err", err)
	}
}

// =============================================================================
// Cache
// =============================================================================

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Report())
}

func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	n, err := s.cache.Clear()
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "clear cache"))
		return
	}
	s.runner.Fetcher.Invalidate()
	s.logger.Info("cache cleared", "assets", n)
	s.writeJSON(w, http.StatusOK, map[string]int{"assets_removed": n})
}
