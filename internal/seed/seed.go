// Package seed loads a data directory of JSON (or YAML) documents into the
// store: quadrants, timeline, goals and values, inspiration, a right-now
// snapshot, processing metadata and manual entries. Missing files are
// skipped. Every entity is upserted by id, so seeding twice is harmless
// except for the snapshot, which is appended.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

// Store is the persistence seeding writes to.
type Store interface {
	SaveQuadrant(ctx context.Context, q models.Quadrant) error
	UpsertTimelineEntry(ctx context.Context, e models.TimelineEntry) error
	SaveGoal(ctx context.Context, g models.Goal) error
	ReplaceValues(ctx context.Context, values []string) error
	SaveInspiration(ctx context.Context, it models.InspirationItem) error
	InsertSnapshot(ctx context.Context, s models.RightNowSnapshot) (int64, error)
	SaveMetadata(ctx context.Context, m models.ProcessingMetadata) error
	CreateManualEntry(ctx context.Context, e models.ManualEntry) error
	MarkProcessed(ctx context.Context, ids []string) (int, error)
}

// Report counts what was loaded.
type Report struct {
	Quadrants     int      `json:"quadrants"`
	Timeline      int      `json:"timeline"`
	Goals         int      `json:"goals"`
	Values        int      `json:"values"`
	Inspiration   int      `json:"inspiration"`
	Snapshots     int      `json:"snapshots"`
	Metadata      bool     `json:"metadata"`
	ManualEntries int      `json:"manualEntries"`
	Skipped       []string `json:"skipped,omitempty"`
}

// Loader reads seed documents from a directory.
type Loader struct {
	store  Store
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewLoader creates a Loader for dir.
func NewLoader(store Store, dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, dir: dir, logger: logger, now: time.Now}
}

// Load seeds everything found in the directory. A malformed document aborts
// the load; entities before it stay written.
func (l *Loader) Load(ctx context.Context) (Report, error) {
	var r Report
	steps := []struct {
		name string
		fn   func(context.Context, []byte, *Report) error
	}{
		{"quadrants", l.quadrants},
		{"timeline", l.timeline},
		{"goals", l.goals},
		{"inspiration", l.inspiration},
		{"right_now", l.rightNow},
		{"metadata", l.metadata},
		{"manual_entries", l.manualEntries},
	}
	for _, s := range steps {
		data, err := l.read(s.name)
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Info("seed: not found, skipping", slog.String("file", s.name))
			r.Skipped = append(r.Skipped, s.name)
			continue
		}
		if err != nil {
			return r, err
		}
		if err := s.fn(ctx, data, &r); err != nil {
			return r, fmt.Errorf("seed: %s: %w", s.name, err)
		}
	}
	l.logger.Info("seed: done",
		slog.Int("quadrants", r.Quadrants),
		slog.Int("timeline", r.Timeline),
		slog.Int("goals", r.Goals),
		slog.Int("values", r.Values),
		slog.Int("inspiration", r.Inspiration),
		slog.Int("snapshots", r.Snapshots),
		slog.Int("manual_entries", r.ManualEntries),
	)
	return r, nil
}

// read returns name.json, or name.yaml / name.yml converted to JSON.
func (l *Loader) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name+".json"))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("seed: read %s: %w", name, err)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		raw, err := os.ReadFile(filepath.Join(l.dir, name+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed: read %s: %w", name, err)
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("seed: parse %s%s: %w", name, ext, err)
		}
		return json.Marshal(doc)
	}
	return nil, os.ErrNotExist
}

var quadrantKnown = map[string]bool{
	"category": true, "name": true, "color": true, "status": true, "lastActivity": true,
	"activityPulse": true, "recentEntries": true, "metrics": true, "people": true,
	"skills": true, "githubStats": true, "travelStats": true,
}

func (l *Loader) quadrants(ctx context.Context, data []byte, r *Report) error {
	var doc map[models.Category]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, cat := range orderedCategories(doc) {
		raw := doc[cat]
		var q models.Quadrant
		if err := json.Unmarshal(raw, &q); err != nil {
			return fmt.Errorf("%s: %w", cat, err)
		}
		extra, err := extras(raw, quadrantKnown)
		if err != nil {
			return fmt.Errorf("%s: %w", cat, err)
		}
		q.Category = cat
		q.Extra = extra
		if q.Status == "" {
			q.Status = models.StatusNeedsAttention
		}
		if q.RecentEntries == nil {
			q.RecentEntries = []models.TimelineEntry{}
		}
		if q.Metrics == nil {
			q.Metrics = map[string]any{}
		}
		if err := l.store.SaveQuadrant(ctx, q); err != nil {
			return err
		}
		r.Quadrants++
	}
	return nil
}

// orderedCategories lists known categories first in display order, then
// anything else the document holds.
func orderedCategories(doc map[models.Category]json.RawMessage) []models.Category {
	var out []models.Category
	for _, c := range models.Categories {
		if _, ok := doc[c]; ok {
			out = append(out, c)
		}
	}
	for c := range doc {
		if !c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

func (l *Loader) timeline(ctx context.Context, data []byte, r *Report) error {
	var entries []models.TimelineEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("timeline entry %q has no id: %w", e.Title, apperr.ErrInvalidInput)
		}
		if e.Significance == "" {
			e.Significance = models.SignificanceMinor
		}
		if err := l.store.UpsertTimelineEntry(ctx, e); err != nil {
			return err
		}
		r.Timeline++
	}
	return nil
}

type seedGoal struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Category  models.Category `json:"category"`
	Completed bool            `json:"completed"`
	Progress  *int            `json:"progress"`
	Deadline  string          `json:"deadline"`
	Context   string          `json:"context"`
	CreatedAt string          `json:"createdAt"`
}

type goalsDoc struct {
	NearFuture []seedGoal `json:"nearFuture"`
	FarFuture  []seedGoal `json:"farFuture"`
	Values     []string   `json:"values"`
}

func (l *Loader) goals(ctx context.Context, data []byte, r *Report) error {
	var doc goalsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	save := func(sg seedGoal, tf models.Timeframe) error {
		g := models.Goal{
			ID:        sg.ID,
			Text:      sg.Text,
			Category:  sg.Category,
			Timeframe: tf,
			Completed: sg.Completed,
			Deadline:  sg.Deadline,
			Context:   sg.Context,
			CreatedAt: l.parseTime(sg.CreatedAt),
		}
		if tf == models.TimeframeNear {
			g.Progress = sg.Progress
		}
		if g.ID == "" {
			return fmt.Errorf("goal %q has no id: %w", g.Text, apperr.ErrInvalidInput)
		}
		if err := l.store.SaveGoal(ctx, g); err != nil {
			return err
		}
		r.Goals++
		return nil
	}
	for _, g := range doc.NearFuture {
		if err := save(g, models.TimeframeNear); err != nil {
			return err
		}
	}
	for _, g := range doc.FarFuture {
		if err := save(g, models.TimeframeFar); err != nil {
			return err
		}
	}
	if len(doc.Values) > 0 {
		if err := l.store.ReplaceValues(ctx, doc.Values); err != nil {
			return err
		}
		r.Values = len(doc.Values)
	}
	return nil
}

func (l *Loader) inspiration(ctx context.Context, data []byte, r *Report) error {
	var items []models.InspirationItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("inspiration item %q has no id: %w", it.Title, apperr.ErrInvalidInput)
		}
		if it.AddedAt == "" {
			it.AddedAt = l.now().UTC().Format(time.DateOnly)
		}
		if err := l.store.SaveInspiration(ctx, it); err != nil {
			return err
		}
		r.Inspiration++
	}
	return nil
}

var snapshotKnown = map[string]bool{
	"id": true, "weekOf": true, "lastUpdated": true, "quadrantStatuses": true, "summary": true,
	"valuesAlignment": true, "actionables": true, "celebration": true, "friendlyNote": true,
	"createdAt": true, "extraData": true,
}

func (l *Loader) rightNow(ctx context.Context, data []byte, r *Report) error {
	var doc struct {
		WeekOf           string                            `json:"weekOf"`
		LastUpdated      string                            `json:"lastUpdated"`
		QuadrantStatuses map[models.Category]models.Status `json:"quadrantStatuses"`
		Summary          string                            `json:"summary"`
		ValuesAlignment  models.ValuesAlignment            `json:"valuesAlignment"`
		Actionables      []models.Actionable               `json:"actionables"`
		Celebration      string                            `json:"celebration"`
		FriendlyNote     string                            `json:"friendlyNote"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	extra, err := extras(data, snapshotKnown)
	if err != nil {
		return err
	}
	now := l.now().UTC()
	s := models.RightNowSnapshot{
		WeekOf:           doc.WeekOf,
		LastUpdated:      doc.LastUpdated,
		QuadrantStatuses: doc.QuadrantStatuses,
		Summary:          doc.Summary,
		ValuesAlignment:  doc.ValuesAlignment,
		Actionables:      doc.Actionables,
		Celebration:      doc.Celebration,
		FriendlyNote:     doc.FriendlyNote,
		Extra:            extra,
		CreatedAt:        now,
	}
	if s.WeekOf == "" {
		s.WeekOf = now.Format(time.DateOnly)
	}
	if s.LastUpdated == "" {
		s.LastUpdated = now.Format(time.RFC3339)
	}
	if s.QuadrantStatuses == nil {
		s.QuadrantStatuses = map[models.Category]models.Status{}
	}
	if s.Actionables == nil {
		s.Actionables = []models.Actionable{}
	}
	if _, err := l.store.InsertSnapshot(ctx, s); err != nil {
		return err
	}
	r.Snapshots++
	return nil
}

func (l *Loader) metadata(ctx context.Context, data []byte, r *Report) error {
	var doc struct {
		LastProcessed         string `json:"lastProcessed"`
		LastNoteScanned       string `json:"lastNoteScanned"`
		TotalEntriesProcessed int    `json:"totalEntriesProcessed"`
		Version               string `json:"version"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	m := models.ProcessingMetadata{
		TotalEntriesProcessed: doc.TotalEntriesProcessed,
		Version:               doc.Version,
	}
	if doc.LastProcessed != "" {
		t := l.parseTime(doc.LastProcessed)
		m.LastProcessed = &t
	}
	if doc.LastNoteScanned != "" {
		t := l.parseTime(doc.LastNoteScanned)
		m.LastNoteScanned = &t
	}
	if err := l.store.SaveMetadata(ctx, m); err != nil {
		return err
	}
	r.Metadata = true
	return nil
}

var manualNamespace = uuid.MustParse("6f1b0c52-3c8e-4d38-9a8e-0b5d3c6e8a11")

func (l *Loader) manualEntries(ctx context.Context, data []byte, r *Report) error {
	var entries []struct {
		ID        string          `json:"id"`
		Content   string          `json:"content"`
		Category  models.Category `json:"category"`
		ImageURL  string          `json:"imageUrl"`
		Link      string          `json:"link"`
		Processed bool            `json:"processed"`
		CreatedAt string          `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	var processed []string
	for _, e := range entries {
		created := l.parseTime(e.CreatedAt)
		id := e.ID
		if id == "" {
			// Stable ids keep a second seed from duplicating entries.
			id = uuid.NewSHA1(manualNamespace, []byte(string(e.Category)+"\x00"+e.Content+"\x00"+e.CreatedAt)).String()
		}
		err := l.store.CreateManualEntry(ctx, models.ManualEntry{
			ID:        id,
			Content:   e.Content,
			Category:  e.Category,
			ImageURL:  e.ImageURL,
			Link:      e.Link,
			CreatedAt: created,
		})
		if errors.Is(err, apperr.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return err
		}
		r.ManualEntries++
		if e.Processed {
			processed = append(processed, id)
		}
	}
	if len(processed) > 0 {
		if _, err := l.store.MarkProcessed(ctx, processed); err != nil {
			return err
		}
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps and plain dates. Anything else,
// including empty, is now.
func (l *Loader) parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return l.now().UTC()
}

// extras returns the keys of a JSON object that are not in known, or nil
// when there are none.
func extras(raw []byte, known map[string]bool) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	var out map[string]any
	for k, v := range all {
		if known[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out, nil
}
