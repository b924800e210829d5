package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lifedash/internal/models"
)

// Result is the decoded analysis reply.
type Result struct {
	TimelineEntries []TimelineEntry                    `json:"timeline_entries"`
	QuadrantUpdates map[models.Category]QuadrantUpdate `json:"quadrant_updates"`
	RightNow        RightNow                           `json:"right_now"`
	Goals           []Goal                             `json:"extracted_goals"`
	Inspiration     []Inspiration                      `json:"extracted_inspiration"`

	// Skipped counts entities dropped because they could not be read.
	Skipped int `json:"-"`
}

// TimelineEntry is a moment proposed by the analysis.
type TimelineEntry struct {
	ID           string              `json:"id"`
	Date         string              `json:"date"`
	Category     models.Category     `json:"category"`
	Title        string              `json:"title"`
	Content      string              `json:"content"`
	Significance models.Significance `json:"significance"`
}

// QuadrantUpdate is the analysis' view of one quadrant. A nil Metrics means
// keep what is stored.
type QuadrantUpdate struct {
	Status          models.Status  `json:"status"`
	LastActivity    string         `json:"lastActivity"`
	ActivityPulse   bool           `json:"activityPulse"`
	RecentHighlight string         `json:"recentHighlight,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
}

// Goal is an extracted goal. Progress is a float because models sometimes
// answer 42.5.
type Goal struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Category  models.Category  `json:"category"`
	Timeframe models.Timeframe `json:"timeframe"`
	Progress  *float64         `json:"progress"`
}

// Inspiration is an extracted inspiration item.
type Inspiration struct {
	ID       string                     `json:"id"`
	Category models.InspirationCategory `json:"category"`
	Type     models.InspirationType     `json:"type"`
	Title    string                     `json:"title"`
	Content  string                     `json:"content"`
	Source   string                     `json:"source"`
}

// RightNow is the snapshot part of the reply. Keys other than the known ones
// are kept in Extra, except quadrantStatuses which is always recomputed from
// the quadrant updates.
type RightNow struct {
	Summary         string                 `json:"summary"`
	ValuesAlignment models.ValuesAlignment `json:"valuesAlignment"`
	Actionables     []models.Actionable    `json:"actionables"`
	Celebration     string                 `json:"celebration"`
	FriendlyNote    string                 `json:"friendlyNote"`
	Extra           map[string]any         `json:"-"`
}

var rightNowKnown = map[string]bool{
	"summary":          true,
	"valuesAlignment":  true,
	"actionables":      true,
	"celebration":      true,
	"friendlyNote":     true,
	"quadrantStatuses": true,
}

// Validate reports whether raw holds every required key: the three top-level
// sections, the right_now fields, the core fields of each timeline entry and
// a status for each quadrant update. Unknown keys are ignored.
func Validate(raw json.RawMessage) bool {
	return validate(raw) == nil
}

func validate(raw json.RawMessage) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return err
	}
	return validation.Validate(top, validation.Map(
		validation.Key("timeline_entries", validation.By(eachObject(
			validation.Key("id"),
			validation.Key("date"),
			validation.Key("category"),
			validation.Key("title"),
			validation.Key("content"),
		))),
		validation.Key("quadrant_updates", validation.By(valuesObject(
			validation.Key("status"),
		))),
		validation.Key("right_now", validation.By(object(
			validation.Key("summary"),
			validation.Key("valuesAlignment"),
			validation.Key("actionables"),
			validation.Key("celebration"),
			validation.Key("friendlyNote"),
		))),
	).AllowExtraKeys())
}

var errShape = errors.New("unexpected JSON shape")

func object(keys ...*validation.KeyRules) validation.RuleFunc {
	return func(value any) error {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(asRaw(value), &m); err != nil || m == nil {
			return errShape
		}
		return validation.Validate(m, validation.Map(keys...).AllowExtraKeys())
	}
}

func eachObject(keys ...*validation.KeyRules) validation.RuleFunc {
	check := object(keys...)
	return func(value any) error {
		var items []json.RawMessage
		if err := json.Unmarshal(asRaw(value), &items); err != nil || items == nil {
			return errShape
		}
		for i, item := range items {
			if err := check(item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	}
}

func valuesObject(keys ...*validation.KeyRules) validation.RuleFunc {
	check := object(keys...)
	return func(value any) error {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(asRaw(value), &m); err != nil || m == nil {
			return errShape
		}
		for k, v := range m {
			if err := check(v); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		return nil
	}
}

func asRaw(value any) []byte {
	if r, ok := value.(json.RawMessage); ok {
		return r
	}
	return nil
}

// Decode reads a validated reply. Loosely typed fields are coerced: numbers
// are accepted where text is expected, numeric strings where numbers are,
// and "true"/"false" strings where a flag is. An entity that still cannot be
// read is dropped and counted in Skipped. Missing significance defaults to
// minor and missing timeframe to near.
func Decode(raw json.RawMessage) (*Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("analysis: decode: %w", err)
	}
	r := &Result{QuadrantUpdates: map[models.Category]QuadrantUpdate{}}

	for _, item := range r.list(top["timeline_entries"]) {
		var w struct {
			ID           text `json:"id"`
			Date         text `json:"date"`
			Category     text `json:"category"`
			Title        text `json:"title"`
			Content      text `json:"content"`
			Significance text `json:"significance"`
		}
		if !r.entity(item, &w) {
			continue
		}
		e := TimelineEntry{
			ID:           string(w.ID),
			Date:         string(w.Date),
			Category:     models.Category(w.Category),
			Title:        string(w.Title),
			Content:      string(w.Content),
			Significance: models.Significance(w.Significance),
		}
		if e.Significance == "" {
			e.Significance = models.SignificanceMinor
		}
		r.TimelineEntries = append(r.TimelineEntries, e)
	}

	var updates map[string]json.RawMessage
	if err := json.Unmarshal(top["quadrant_updates"], &updates); err != nil {
		return nil, fmt.Errorf("analysis: decode quadrant_updates: %w", err)
	}
	for cat, item := range updates {
		var w struct {
			Status          text      `json:"status"`
			LastActivity    text      `json:"lastActivity"`
			ActivityPulse   flag      `json:"activityPulse"`
			RecentHighlight text      `json:"recentHighlight"`
			Metrics         objectMap `json:"metrics"`
		}
		if !r.entity(item, &w) {
			continue
		}
		r.QuadrantUpdates[models.Category(cat)] = QuadrantUpdate{
			Status:          models.Status(w.Status),
			LastActivity:    string(w.LastActivity),
			ActivityPulse:   bool(w.ActivityPulse),
			RecentHighlight: string(w.RecentHighlight),
			Metrics:         w.Metrics,
		}
	}

	rn, err := r.rightNow(top["right_now"])
	if err != nil {
		return nil, fmt.Errorf("analysis: decode right_now: %w", err)
	}
	r.RightNow = rn

	for _, item := range r.list(top["extracted_goals"]) {
		var w struct {
			ID        text   `json:"id"`
			Text      text   `json:"text"`
			Category  text   `json:"category"`
			Timeframe text   `json:"timeframe"`
			Progress  number `json:"progress"`
		}
		if !r.entity(item, &w) {
			continue
		}
		g := Goal{
			ID:        string(w.ID),
			Text:      string(w.Text),
			Category:  models.Category(w.Category),
			Timeframe: models.Timeframe(w.Timeframe),
			Progress:  w.Progress.ptr(),
		}
		if g.Timeframe == "" {
			g.Timeframe = models.TimeframeNear
		}
		r.Goals = append(r.Goals, g)
	}

	for _, item := range r.list(top["extracted_inspiration"]) {
		var w struct {
			ID       text `json:"id"`
			Category text `json:"category"`
			Type     text `json:"type"`
			Title    text `json:"title"`
			Content  text `json:"content"`
			Source   text `json:"source"`
		}
		if !r.entity(item, &w) {
			continue
		}
		r.Inspiration = append(r.Inspiration, Inspiration{
			ID:       string(w.ID),
			Category: models.InspirationCategory(w.Category),
			Type:     models.InspirationType(w.Type),
			Title:    string(w.Title),
			Content:  string(w.Content),
			Source:   string(w.Source),
		})
	}
	return r, nil
}

// list splits an array section into items. A section that is not an array
// counts as one skipped entity.
func (r *Result) list(raw json.RawMessage) []json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.Skipped++
		return nil
	}
	return items
}

// entity decodes one item into v, counting it as skipped when it is null or
// unreadable.
func (r *Result) entity(raw json.RawMessage, v any) bool {
	if isNull(raw) || json.Unmarshal(raw, v) != nil {
		r.Skipped++
		return false
	}
	return true
}

func (r *Result) rightNow(raw json.RawMessage) (RightNow, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return RightNow{}, err
	}

	var rn RightNow
	var summary, celebration, note text
	_ = lenient(fields["summary"], &summary)
	_ = lenient(fields["celebration"], &celebration)
	_ = lenient(fields["friendlyNote"], &note)
	rn.Summary, rn.Celebration, rn.FriendlyNote = string(summary), string(celebration), string(note)

	var va struct {
		Score          number   `json:"score"`
		LivingWell     textList `json:"livingWell"`
		NeedsAttention textList `json:"needsAttention"`
		Note           text     `json:"note"`
	}
	if err := lenient(fields["valuesAlignment"], &va); err != nil {
		r.Skipped++
	}
	rn.ValuesAlignment = models.ValuesAlignment{
		Score:          va.Score.v,
		LivingWell:     orEmpty(va.LivingWell),
		NeedsAttention: orEmpty(va.NeedsAttention),
		Note:           string(va.Note),
	}

	rn.Actionables = []models.Actionable{}
	for _, item := range r.list(fields["actionables"]) {
		var w struct {
			ID       text `json:"id"`
			Text     text `json:"text"`
			Priority text `json:"priority"`
			Effort   text `json:"effort"`
			Impact   text `json:"impact"`
			Quadrant text `json:"quadrant"`
		}
		if !r.entity(item, &w) {
			continue
		}
		rn.Actionables = append(rn.Actionables, models.Actionable{
			ID:       string(w.ID),
			Text:     string(w.Text),
			Priority: string(w.Priority),
			Effort:   string(w.Effort),
			Impact:   string(w.Impact),
			Quadrant: models.Category(w.Quadrant),
		})
	}

	for k, v := range fields {
		if rightNowKnown[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			continue
		}
		if rn.Extra == nil {
			rn.Extra = make(map[string]any)
		}
		rn.Extra[k] = val
	}
	return rn, nil
}

// lenient decodes raw into v when present. Absent keys leave v unchanged.
func lenient(raw json.RawMessage, v any) error {
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

func orEmpty(l textList) []string {
	if l == nil {
		return []string{}
	}
	return l
}
