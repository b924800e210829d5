package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/importer"
	"github.com/starford/lifedash/internal/pipeline"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Run(ctx context.Context) pipeline.Result
}

// Importer ingests a personal-data export.
type Importer interface {
	Import(ctx context.Context, data []byte) (importer.Stats, error)
}

// Auth configures request authentication.
type Auth struct {
	Enabled    bool
	Token      string
	CronSecret string
}

// NewRouter creates a chi router with all API routes mounted.
// GET /process is reserved for the scheduler and checks the cron secret;
// everything else sits behind the bearer token when auth is enabled.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *dashboard.Service, refresher Refresher, imp Importer, auth Auth, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, refresher, imp)

	r := chi.NewRouter()

	// Scheduled refresh.
	r.With(CronMiddleware(auth.CronSecret)).Get("/process", h.Process)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(auth.Enabled, auth.Token))

		// Read model.
		r.Get("/dashboard", h.Dashboard)
		r.Get("/quadrants", h.ListQuadrants)
		r.Get("/quadrants/{category}", h.GetQuadrant)
		r.Get("/right-now", h.RightNow)
		r.Get("/metadata", h.Metadata)

		// Timeline.
		r.Get("/timeline", h.ListTimeline)
		r.Post("/timeline", h.CreateTimelineEntry)

		// Goals.
		r.Get("/goals", h.ListGoals)
		r.Post("/goals", h.CreateGoal)
		r.Patch("/goals/{id}", h.PatchGoal)
		r.Delete("/goals/{id}", h.DeleteGoal)

		// Inspiration.
		r.Get("/inspiration", h.ListInspiration)
		r.Post("/inspiration", h.CreateInspiration)

		// Manual entries.
		r.Get("/manual-entries", h.ListManualEntries)
		r.Post("/manual-entries", h.CreateManualEntry)

		// Search.
		r.Get("/search", h.Search)

		// Refresh and import.
		r.Post("/process", h.Process)
		r.Post("/import/instagram", h.ImportInstagram)

		// SSE endpoint (protected by same auth middleware).
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
