package web

import (
	"database/sql"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/hivemindhq/hivemind/internal/config"
	"github.com/hivemindhq/hivemind/internal/db"
	"github.com/hivemindhq/hivemind/internal/errors"
	"github.com/hivemindhq/hivemind/internal/honeypot"
	"github.com/hivemindhq/hivemind/internal/ops"
	"github.com/hivemindhq/hivemind/internal/ratelimit"
)

// Handlers contains HTTP route handlers for the API and browse UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
	limiter  *ratelimit.Limiter
}

// API handlers

// HandleAPISearch handles GET /api/search?q=...&full=true.
func (h *Handlers) HandleAPISearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`query parameter "q" is required; add &full=true for complete entries`))
		return
	}

	result, err := ops.Search(h.db, ops.SearchInput{
		Query: q,
		Full:  parseBoolParam(r, "full"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// Full mode returns the bare entry array, compact mode the envelope.
	if result.Entries != nil {
		renderJSON(w, http.StatusOK, result.Entries)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPISubmit handles POST /api/submit.
func (h *Handlers) HandleAPISubmit(w http.ResponseWriter, r *http.Request) {
	reqID := ulid.Make().String()
	ip := clientIP(r, h.cfg.TrustProxy)

	if !h.limiter.Allow(ip) {
		w.Header().Set("Retry-After", "3600")
		h.renderer.renderError(w, r, errors.NewRateLimited())
		return
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid JSON body"))
		return
	}
	if data == nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("request body must be a JSON object"))
		return
	}

	result, err := ops.Submit(h.db, ops.SubmitInput{Data: data})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if result.Honeypot {
		title, _ := data["title"].(string)
		log.Printf("[%s] injection blocked from %s: %q", reqID, ip, honeypot.Excerpt(title))
	}

	renderJSON(w, http.StatusCreated, result)
}

// HandleAPIEntries handles GET /api/entries with filters and pagination.
func (h *Handlers) HandleAPIEntries(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseIntParamStrict(w, r, h, "limit", ops.DefaultListLimit, 1)
	if !ok {
		return
	}
	offset, ok := parseIntParamStrict(w, r, h, "offset", 0, 0)
	if !ok {
		return
	}
	cursor, ok := parseIntParamStrict(w, r, h, "cursor", 0, 1)
	if !ok {
		return
	}

	result, err := ops.List(h.db, ops.ListInput{
		Category:    r.URL.Query().Get("category"),
		Tag:         r.URL.Query().Get("tag"),
		Language:    r.URL.Query().Get("language"),
		Framework:   r.URL.Query().Get("framework"),
		Severity:    r.URL.Query().Get("severity"),
		Environment: r.URL.Query().Get("environment"),
		Limit:       limit,
		Offset:      offset,
		Cursor:      int64(cursor),
		Full:        parseBoolParam(r, "full"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if !parseBoolParam(r, "stats") {
		renderJSON(w, http.StatusOK, result)
		return
	}

	stats, err := db.GetStats(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{
		"count":        result.Count,
		"entries":      result.Items,
		"full_entries": result.Entries,
		"next_cursor":  result.NextCursor,
		"stats":        stats,
	})
}

// HandleAPIEntry handles GET /api/entry/{id}?fields=solution,gotchas.
func (h *Handlers) HandleAPIEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid entry ID"))
		return
	}

	var fields []string
	if fieldsParam := r.URL.Query().Get("fields"); fieldsParam != "" {
		fields = strings.Split(fieldsParam, ",")
	}

	result, err := ops.Get(h.db, ops.GetInput{ID: id, Fields: fields})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIStats handles GET /api/stats.
func (h *Handlers) HandleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ops.Stats(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, stats)
}

// Browse UI handlers

// HandleList handles GET /entries — browse entries newest-first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Category:  r.URL.Query().Get("category"),
		Tag:       r.URL.Query().Get("tag"),
		Language:  r.URL.Query().Get("language"),
		Framework: r.URL.Query().Get("framework"),
		Severity:  r.URL.Query().Get("severity"),
		Limit:     parseIntParam(r, "limit", ops.DefaultListLimit),
		Cursor:    int64(parseIntParam(r, "cursor", 0)),
	}

	result, err := ops.List(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Entries",
			Version: h.renderer.version,
			Nav:     "entries",
		},
		Items:      result.Items,
		NextCursor: result.NextCursor,
		Category:   input.Category,
		Tag:        input.Tag,
		Language:   input.Language,
		Framework:  input.Framework,
		Severity:   input.Severity,
	})
}

// HandleDetail handles GET /entries/{id} — view a single entry with its
// markdown fields rendered.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid entry ID"))
		return
	}

	e, err := db.GetEntry(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   e.Title,
			Version: h.renderer.version,
			Nav:     "entries",
		},
		Entry:        e,
		ProblemHTML:  renderMarkdown(e.Problem),
		SolutionHTML: renderMarkdown(e.Solution),
		WhyHTML:      renderMarkdown(e.Why),
		Created:      formatTime(e.CreatedAt),
	})
}

// HandleSearch handles GET /search — the search page.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		result, err := ops.Search(h.db, ops.SearchInput{Query: query})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Results = result.Results
	}

	h.renderer.renderPage(w, "search", data)
}

// Parameter helpers

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseIntParamStrict parses an integer query parameter, rejecting the
// request when the value is malformed or below min. Returns ok=false after
// writing the error response.
func parseIntParamStrict(w http.ResponseWriter, r *http.Request, h *Handlers, name string, defaultVal, min int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(name+" must be an integer >= "+strconv.Itoa(min)))
		return 0, false
	}
	return v, true
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// clientIP extracts the client IP from the request.
//
// When trustProxy is true, checks X-Real-IP first (set by nginx/HAProxy),
// then X-Forwarded-For (first IP). Header values are validated with
// net.ParseIP to prevent injection of non-IP strings into rate limiter keys.
//
// When trustProxy is false, only uses RemoteAddr (safe default for direct exposure).
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			raw := xff
			if first, _, ok := strings.Cut(xff, ","); ok {
				raw = first
			}
			if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
				return ip.String()
			}
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
