// Package models defines the domain types for the life dashboard.
package models

import "time"

// Category is one of the four life quadrants.
type Category string

// Quadrant categories.
const (
	CategoryRelationships Category = "relationships"
	CategoryParkour       Category = "parkour"
	CategoryWork          Category = "work"
	CategoryTravel        Category = "travel"
)

// Categories lists the quadrants in display order.
var Categories = []Category{CategoryRelationships, CategoryParkour, CategoryWork, CategoryTravel}

// Valid reports whether c is a known quadrant.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// CategoryValues returns the categories as plain values, for validation.In.
func CategoryValues() []any {
	out := make([]any, len(Categories))
	for i, c := range Categories {
		out[i] = c
	}
	return out
}

// Status describes how a quadrant is doing.
type Status string

// Quadrant statuses.
const (
	StatusThriving       Status = "thriving"
	StatusBalanced       Status = "balanced"
	StatusNeedsAttention Status = "needs_attention"
	StatusDormant        Status = "dormant"
	StatusNeglected      Status = "neglected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusThriving, StatusBalanced, StatusNeedsAttention, StatusDormant, StatusNeglected:
		return true
	}
	return false
}

// Significance tags the importance of a timeline moment.
type Significance string

// Significance levels.
const (
	SignificanceMinor   Significance = "minor"
	SignificanceNotable Significance = "notable"
	SignificanceMajor   Significance = "major"
)

// Timeframe splits goals into near-term and far-term.
type Timeframe string

// Goal timeframes.
const (
	TimeframeNear Timeframe = "near"
	TimeframeFar  Timeframe = "far"
)

// InspirationCategory groups inspiration items.
type InspirationCategory string

// Inspiration categories.
const (
	InspirationMovement   InspirationCategory = "movement"
	InspirationInnovation InspirationCategory = "innovation"
	InspirationTravel     InspirationCategory = "travel"
	InspirationPhilosophy InspirationCategory = "philosophy"
	InspirationPeople     InspirationCategory = "people"
)

// InspirationType is the media kind of an inspiration item.
type InspirationType string

// Inspiration types.
const (
	TypeVideo   InspirationType = "video"
	TypeImage   InspirationType = "image"
	TypeQuote   InspirationType = "quote"
	TypeArticle InspirationType = "article"
	TypeProfile InspirationType = "profile"
)

// TimelineEntry is a single moment in the life story.
type TimelineEntry struct {
	ID           string       `json:"id"`
	Date         string       `json:"date"`
	Category     Category     `json:"category"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	SourceNote   string       `json:"sourceNote,omitempty"`
	Significance Significance `json:"significance"`
}

// Goal is a near- or far-term goal.
type Goal struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Category    Category   `json:"category,omitempty"`
	Timeframe   Timeframe  `json:"timeframe"`
	Completed   bool       `json:"completed"`
	Progress    *int       `json:"progress,omitempty"`
	Deadline    string     `json:"deadline,omitempty"`
	Context     string     `json:"context,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// InspirationItem is a saved video, quote, profile or article.
type InspirationItem struct {
	ID         string              `json:"id"`
	Category   InspirationCategory `json:"category"`
	Type       InspirationType     `json:"type"`
	Title      string              `json:"title"`
	Content    string              `json:"content"`
	Source     string              `json:"source,omitempty"`
	PersonName string              `json:"personName,omitempty"`
	AddedAt    string              `json:"addedAt"`
	Tags       []string            `json:"tags,omitempty"`
}

// ManualEntry is a user-submitted note waiting to be folded into analysis.
type ManualEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Processed bool      `json:"processed"`
}

// ProcessingMetadata is the singleton record of pipeline runs.
type ProcessingMetadata struct {
	LastProcessed         *time.Time `json:"lastProcessed,omitempty"`
	LastNoteScanned       *time.Time `json:"lastNoteScanned,omitempty"`
	TotalEntriesProcessed int        `json:"totalEntriesProcessed"`
	Version               string     `json:"version"`
}
