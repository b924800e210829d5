package models

// Person is tracked on the relationships quadrant.
type Person struct {
	Name              string `json:"name"`
	MentionCount      int    `json:"mentionCount"`
	LastMentioned     string `json:"lastMentioned"`
	ConnectionQuality string `json:"connectionQuality,omitempty"`
}

// Skill is tracked on the parkour quadrant.
type Skill struct {
	Name           string `json:"name"`
	Status         string `json:"status"`
	FirstMentioned string `json:"firstMentioned"`
	LastMentioned  string `json:"lastMentioned"`
}

// GitHubStats is shown on the work quadrant.
type GitHubStats struct {
	Commits int      `json:"commits"`
	Repos   []string `json:"repos"`
	Streak  int      `json:"streak"`
}

// TravelStats is shown on the travel quadrant.
type TravelStats struct {
	DaysSinceLastTrip int    `json:"daysSinceLastTrip"`
	TripsThisYear     int    `json:"tripsThisYear"`
	FlightAlerts      int    `json:"flightAlerts"`
	JapaneseLevel     string `json:"japaneseLevel,omitempty"`
	YearsStudying     int    `json:"yearsStudying,omitempty"`
}

// Quadrant is the persisted per-category state. There is exactly one row per
// category. The category-specific fields are only set for their own category;
// anything else the seed data carries lands in Extra.
type Quadrant struct {
	Category      Category        `json:"category"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Status        Status          `json:"status"`
	LastActivity  string          `json:"lastActivity"`
	ActivityPulse bool            `json:"activityPulse"`
	RecentEntries []TimelineEntry `json:"recentEntries"`
	Metrics       map[string]any  `json:"metrics"`

	People      []Person     `json:"people,omitempty"`
	Skills      []Skill      `json:"skills,omitempty"`
	GitHubStats *GitHubStats `json:"githubStats,omitempty"`
	TravelStats *TravelStats `json:"travelStats,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// QuadrantUpdate is the in-place mutation the pipeline applies to a quadrant.
// A nil Metrics keeps the stored metrics.
type QuadrantUpdate struct {
	Status        Status
	LastActivity  string
	ActivityPulse bool
	Metrics       map[string]any
}

// QuadrantDef is the static definition of a quadrant.
type QuadrantDef struct {
	Category Category
	Name     string
	Color    string
	Tags     []string
}

// DefaultQuadrants are used when bootstrapping rows and rendering prompts.
var DefaultQuadrants = []QuadrantDef{
	{CategoryRelationships, "Relationships", "#FF6B6B", []string{"relationships", "friends", "family", "social", "connection"}},
	{CategoryParkour, "Parkour", "#4ECDC4", []string{"parkour", "training", "movement", "fitness", "exercise"}},
	{CategoryWork, "Work & Innovation", "#9B59B6", []string{"work", "startup", "coding", "project", "ignite", "development"}},
	{CategoryTravel, "Travel & Adventure", "#F9CA24", []string{"travel", "trip", "adventure", "japan", "japanese", "language"}},
}

// DefaultValues are the core values used when none are stored.
var DefaultValues = []string{
	"Enjoying life",
	"Being good to people",
	"Physical development through movement",
	"Innovation and building things",
	"Travel and new experiences",
	"Learning (especially Japanese)",
}
