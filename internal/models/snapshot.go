package models

import "time"

// ValuesAlignment scores how well recent life matches the core values.
type ValuesAlignment struct {
	Score          float64  `json:"score"`
	LivingWell     []string `json:"livingWell"`
	NeedsAttention []string `json:"needsAttention"`
	Note           string   `json:"note"`
}

// Actionable is a suggestion from the analysis.
type Actionable struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Priority string   `json:"priority"`
	Effort   string   `json:"effort"`
	Impact   string   `json:"impact"`
	Quadrant Category `json:"quadrant,omitempty"`
}

// RightNowSnapshot is an immutable point-in-time status record. Rows are only
// ever appended; the current state is the most recently created row.
type RightNowSnapshot struct {
	ID               int64               `json:"id"`
	WeekOf           string              `json:"weekOf"`
	LastUpdated      string              `json:"lastUpdated"`
	QuadrantStatuses map[Category]Status `json:"quadrantStatuses"`
	Summary          string              `json:"summary"`
	ValuesAlignment  ValuesAlignment     `json:"valuesAlignment"`
	Actionables      []Actionable        `json:"actionables"`
	Celebration      string              `json:"celebration"`
	FriendlyNote     string              `json:"friendlyNote"`
	Extra            map[string]any      `json:"extraData,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// PlaceholderSnapshot is what readers see before the first cycle has run.
func PlaceholderSnapshot(now time.Time) RightNowSnapshot {
	statuses := make(map[Category]Status, len(Categories))
	for _, c := range Categories {
		statuses[c] = StatusNeedsAttention
	}
	return RightNowSnapshot{
		WeekOf:           now.UTC().Format(time.DateOnly),
		LastUpdated:      now.UTC().Format(time.RFC3339),
		QuadrantStatuses: statuses,
		Summary:          "No data yet. Run a processing cycle to populate.",
		ValuesAlignment:  ValuesAlignment{LivingWell: []string{}, NeedsAttention: []string{}},
		Actionables:      []Actionable{},
	}
}
