package api

import (
	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/importer"
	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/pipeline"
	"github.com/starford/lifedash/internal/search"
)

// CreateManualEntryRequest is the request body for adding a manual entry.
type CreateManualEntryRequest = dashboard.ManualEntryInput

// CreateTimelineRequest is the request body for adding a timeline entry.
type CreateTimelineRequest = dashboard.TimelineInput

// CreateGoalRequest is the request body for adding a goal.
type CreateGoalRequest = dashboard.GoalInput

// PatchGoalRequest is the request body for editing a goal.
type PatchGoalRequest = dashboard.GoalPatchInput

// CreateInspirationRequest is the request body for adding an inspiration item.
type CreateInspirationRequest = dashboard.InspirationInput

// DashboardResponse is the full dashboard bundle.
type DashboardResponse = dashboard.Bundle

// GoalsResponse splits goals by timeframe.
type GoalsResponse = dashboard.GoalsView

// QuadrantListResponse wraps the quadrant rows.
type QuadrantListResponse struct {
	Quadrants []models.Quadrant `json:"quadrants" validate:"required"`
}

// TimelineResponse wraps timeline entries.
type TimelineResponse struct {
	Entries []models.TimelineEntry `json:"entries" validate:"required"`
}

// InspirationResponse wraps inspiration items.
type InspirationResponse struct {
	Items []models.InspirationItem `json:"items" validate:"required"`
}

// ManualEntryListResponse wraps manual entries.
type ManualEntryListResponse struct {
	Entries []models.ManualEntry `json:"entries" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// ProcessResponse is returned by the refresh endpoint. On failure only
// Success, Error and Code are set.
type ProcessResponse struct {
	Success bool            `json:"success"`
	RunID   string          `json:"runId,omitempty"`
	Code    pipeline.Code   `json:"code"`
	Stats   *pipeline.Stats `json:"stats,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ImportResponse is returned by the bulk import endpoint.
type ImportResponse struct {
	Success bool           `json:"success"`
	Stats   importer.Stats `json:"stats"`
}
