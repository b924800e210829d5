package dashboard

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

// ManualEntryInput is a user note to fold into the next cycle.
type ManualEntryInput struct {
	Content  string          `json:"content"`
	Category models.Category `json:"category"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Link     string          `json:"link,omitempty"`
}

// Validate checks required fields.
func (in ManualEntryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content, validation.Required, validation.Length(1, 10000)),
		validation.Field(&in.Category, validation.Required, validation.In(models.CategoryValues()...)),
		validation.Field(&in.ImageURL, validation.Length(0, 2048)),
		validation.Field(&in.Link, validation.Length(0, 2048)),
	)
}

// TimelineInput is a timeline entry added by hand.
type TimelineInput struct {
	ID           string              `json:"id,omitempty"`
	Date         string              `json:"date"`
	Category     models.Category     `json:"category"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	ImageURL     string              `json:"imageUrl,omitempty"`
	Significance models.Significance `json:"significance,omitempty"`
}

// Validate checks required fields and enums.
func (in TimelineInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&in.Category, validation.Required, validation.In(models.CategoryValues()...)),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Significance, validation.In(
			models.SignificanceMinor, models.SignificanceNotable, models.SignificanceMajor,
		)),
	)
}

// GoalInput creates a goal.
type GoalInput struct {
	Text      string           `json:"text"`
	Category  models.Category  `json:"category,omitempty"`
	Timeframe models.Timeframe `json:"timeframe"`
	Progress  *int             `json:"progress,omitempty"`
	Deadline  string           `json:"deadline,omitempty"`
	Context   string           `json:"context,omitempty"`
}

// Validate checks required fields. Progress is only allowed on near-term
// goals.
func (in GoalInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.Category, validation.In(models.CategoryValues()...)),
		validation.Field(&in.Timeframe, validation.Required, validation.In(models.TimeframeNear, models.TimeframeFar)),
		validation.Field(&in.Progress,
			validation.Min(0), validation.Max(100),
			validation.When(in.Timeframe == models.TimeframeFar, validation.Nil.Error("only near-term goals track progress")),
		),
		validation.Field(&in.Deadline, validation.Date("2006-01-02")),
	)
}

// GoalPatchInput edits a goal. Absent fields are left alone.
type GoalPatchInput struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Progress  *int    `json:"progress,omitempty"`
}

// Validate checks the provided fields.
func (in GoalPatchInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Text, validation.NilOrNotEmpty, validation.Length(1, 500)),
		validation.Field(&in.Progress, validation.Min(0), validation.Max(100)),
	)
}

func (in GoalPatchInput) empty() bool {
	return in.Text == nil && in.Completed == nil && in.Progress == nil
}

// InspirationInput adds an inspiration item.
type InspirationInput struct {
	Category   models.InspirationCategory `json:"category"`
	Type       models.InspirationType     `json:"type"`
	Title      string                     `json:"title"`
	Content    string                     `json:"content"`
	Source     string                     `json:"source,omitempty"`
	PersonName string                     `json:"personName,omitempty"`
	Tags       []string                   `json:"tags,omitempty"`
}

// Validate checks required fields and enums.
func (in InspirationInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Category, validation.Required, validation.In(
			models.InspirationMovement, models.InspirationInnovation, models.InspirationTravel,
			models.InspirationPhilosophy, models.InspirationPeople,
		)),
		validation.Field(&in.Type, validation.Required, validation.In(
			models.TypeVideo, models.TypeImage, models.TypeQuote, models.TypeArticle, models.TypeProfile,
		)),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.Tags, validation.Length(0, 20)),
	)
}

type validatable interface{ Validate() error }

// check runs v.Validate and tags failures as invalid input.
func check(v validatable) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, strings.TrimSpace(err.Error()))
	}
	return nil
}
