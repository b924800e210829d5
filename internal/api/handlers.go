package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *dashboard.Service
	refresher Refresher
	importer  Importer
}

// NewHandler creates a new Handler.
func NewHandler(svc *dashboard.Service, refresher Refresher, imp Importer) *Handler {
	return &Handler{svc: svc, refresher: refresher, importer: imp}
}

// Dashboard handles GET /api/dashboard.
//
//	@Summary		Everything the dashboard page renders
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	DashboardResponse
//	@Security		BearerAuth
//	@Router			/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListQuadrants handles GET /api/quadrants.
//
//	@Summary		List the four quadrants
//	@Tags			quadrants
//	@Produce		json
//	@Success		200	{object}	QuadrantListResponse
//	@Security		BearerAuth
//	@Router			/quadrants [get]
func (h *Handler) ListQuadrants(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.Quadrants(r.Context())
	if err != nil {
		writeServiceError(w, "list quadrants", err)
		return
	}
	writeJSON(w, http.StatusOK, QuadrantListResponse{Quadrants: qs})
}

// GetQuadrant handles GET /api/quadrants/{category}.
func (h *Handler) GetQuadrant(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quadrant(r.Context(), models.Category(chi.URLParam(r, "category")))
	if err != nil {
		writeServiceError(w, "get quadrant", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// RightNow handles GET /api/right-now.
//
//	@Summary		Latest status snapshot
//	@Description	Returns a placeholder snapshot before the first refresh.
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	dashboard.RightNow
//	@Security		BearerAuth
//	@Router			/right-now [get]
func (h *Handler) RightNow(w http.ResponseWriter, r *http.Request) {
	rn, err := h.svc.RightNow(r.Context())
	if err != nil {
		writeServiceError(w, "right now", err)
		return
	}
	writeJSON(w, http.StatusOK, rn)
}

// Metadata handles GET /api/metadata.
func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Metadata(r.Context())
	if err != nil {
		writeServiceError(w, "metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ListTimeline handles GET /api/timeline.
//
//	@Summary		Timeline entries, newest first
//	@Tags			timeline
//	@Produce		json
//	@Param			category	query		string	false	"Filter by quadrant"	Enums(relationships, parkour, work, travel)
//	@Param			limit		query		int		false	"Max entries"
//	@Success		200			{object}	TimelineResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timeline [get]
func (h *Handler) ListTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := h.svc.Timeline(r.Context(), models.Category(q.Get("category")), limit)
	if err != nil {
		writeServiceError(w, "list timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, TimelineResponse{Entries: entries})
}

// CreateTimelineEntry handles POST /api/timeline.
//
//	@Summary		Add a timeline entry by hand
//	@Tags			timeline
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateTimelineRequest	true	"Entry to add"
//	@Success		201		{object}	models.TimelineEntry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/timeline [post]
func (h *Handler) CreateTimelineEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateTimelineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.AddTimelineEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create timeline entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListGoals handles GET /api/goals.
//
//	@Summary		Goals split into near and far future, with core values
//	@Tags			goals
//	@Produce		json
//	@Success		200	{object}	GoalsResponse
//	@Security		BearerAuth
//	@Router			/goals [get]
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Goals(r.Context())
	if err != nil {
		writeServiceError(w, "list goals", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateGoal handles POST /api/goals.
//
//	@Summary		Add a goal
//	@Tags			goals
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateGoalRequest	true	"Goal to add"
//	@Success		201		{object}	models.Goal
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/goals [post]
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.CreateGoal(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create goal", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// PatchGoal handles PATCH /api/goals/{id}.
//
//	@Summary		Edit, complete or reopen a goal
//	@Tags			goals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Goal id"
//	@Param			body	body		PatchGoalRequest	true	"Fields to change"
//	@Success		200		{object}	models.Goal
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/goals/{id} [patch]
func (h *Handler) PatchGoal(w http.ResponseWriter, r *http.Request) {
	var req PatchGoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.svc.PatchGoal(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "patch goal", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGoal handles DELETE /api/goals/{id}.
//
//	@Summary		Delete a goal
//	@Tags			goals
//	@Param			id	path	string	true	"Goal id"
//	@Success		204	"Goal deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/goals/{id} [delete]
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInspiration handles GET /api/inspiration.
func (h *Handler) ListInspiration(w http.ResponseWriter, r *http.Request) {
	cat := models.InspirationCategory(r.URL.Query().Get("category"))
	items, err := h.svc.Inspiration(r.Context(), cat)
	if err != nil {
		writeServiceError(w, "list inspiration", err)
		return
	}
	writeJSON(w, http.StatusOK, InspirationResponse{Items: items})
}

// CreateInspiration handles POST /api/inspiration.
//
//	@Summary		Add an inspiration item
//	@Tags			inspiration
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateInspirationRequest	true	"Item to add"
//	@Success		201		{object}	models.InspirationItem
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/inspiration [post]
func (h *Handler) CreateInspiration(w http.ResponseWriter, r *http.Request) {
	var req CreateInspirationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.svc.AddInspiration(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create inspiration", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// ListManualEntries handles GET /api/manual-entries.
//
//	@Summary		List manual entries
//	@Tags			manual-entries
//	@Produce		json
//	@Param			pending	query		bool	false	"Only entries not yet processed"
//	@Success		200		{object}	ManualEntryListResponse
//	@Security		BearerAuth
//	@Router			/manual-entries [get]
func (h *Handler) ListManualEntries(w http.ResponseWriter, r *http.Request) {
	pending, _ := strconv.ParseBool(r.URL.Query().Get("pending"))
	entries, err := h.svc.ManualEntries(r.Context(), pending)
	if err != nil {
		writeServiceError(w, "list manual entries", err)
		return
	}
	writeJSON(w, http.StatusOK, ManualEntryListResponse{Entries: entries})
}

// CreateManualEntry handles POST /api/manual-entries.
//
//	@Summary		Add a note for the next refresh
//	@Tags			manual-entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateManualEntryRequest	true	"Entry to add"
//	@Success		201		{object}	models.ManualEntry
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/manual-entries [post]
func (h *Handler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateManualEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.AddManualEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create manual entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across timeline and inspiration
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
