// Package activity summarizes recent code-hosting push activity.
package activity

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/starford/lifedash/internal/github"
)

// MaxMessages caps Summary.RecentMessages.
const MaxMessages = 10

// Summary aggregates push events over the lookback window.
type Summary struct {
	HasActivity    bool     `json:"hasActivity"`
	Commits        int      `json:"commits"`
	Repos          []string `json:"repos"`
	Streak         int      `json:"streak"`
	RecentMessages []string `json:"recentMessages"`
	EventsCount    int      `json:"eventsCount"`
}

// Empty is the summary used when there is nothing to report.
func Empty() Summary {
	return Summary{Repos: []string{}, RecentMessages: []string{}}
}

// Summarize aggregates the push events created at or after now-lookback.
// Other event types are ignored.
func Summarize(events []github.Event, now time.Time, lookback time.Duration) Summary {
	cutoff := now.Add(-lookback)

	var pushes []github.Event
	for _, e := range events {
		if e.Type == github.PushEventType && !e.CreatedAt.Before(cutoff) {
			pushes = append(pushes, e)
		}
	}
	if len(pushes) == 0 {
		return Empty()
	}

	slices.SortStableFunc(pushes, func(a, b github.Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	s := Summary{
		HasActivity:    true,
		Repos:          []string{},
		RecentMessages: []string{},
		EventsCount:    len(pushes),
	}

	repos := make(map[string]struct{})
	days := make(map[string]struct{})
	for _, e := range pushes {
		s.Commits += len(e.Payload.Commits)
		if name := shortName(e.Repo.Name); name != "" {
			repos[name] = struct{}{}
		}
		days[e.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
		for _, c := range e.Payload.Commits {
			if len(s.RecentMessages) < MaxMessages {
				s.RecentMessages = append(s.RecentMessages, c.Message)
			}
		}
	}
	for r := range repos {
		s.Repos = append(s.Repos, r)
	}
	slices.Sort(s.Repos)
	s.Streak = streak(days, now)

	return s
}

// streak counts consecutive UTC days with a push, walking back from today.
// A quiet today does not break the streak.
func streak(days map[string]struct{}, now time.Time) int {
	today := now.UTC().Format(time.DateOnly)
	n := 0
	for d := now.UTC(); ; d = d.AddDate(0, 0, -1) {
		key := d.Format(time.DateOnly)
		if _, ok := days[key]; ok {
			n++
			continue
		}
		if key != today {
			return n
		}
	}
}

func shortName(repo string) string {
	if i := strings.LastIndex(repo, "/"); i >= 0 {
		return repo[i+1:]
	}
	return repo
}

// EventSource reads raw activity events for a user.
type EventSource interface {
	UserEvents(ctx context.Context, user string) ([]github.Event, error)
}

// Summarizer fetches events and summarizes them. It never returns an error:
// fetch failures degrade to Empty.
type Summarizer struct {
	source   EventSource
	user     string
	lookback time.Duration
	now      func() time.Time
}

// NewSummarizer creates a Summarizer for one account.
func NewSummarizer(source EventSource, user string, lookback time.Duration) *Summarizer {
	return &Summarizer{source: source, user: user, lookback: lookback, now: time.Now}
}

// Summary returns the activity summary for the configured account.
func (s *Summarizer) Summary(ctx context.Context) Summary {
	if s == nil || s.source == nil || s.user == "" {
		return Empty()
	}
	events, err := s.source.UserEvents(ctx, s.user)
	if err != nil {
		slog.Warn("activity: fetch events failed",
			slog.String("user", s.user),
			slog.String("error", err.Error()),
		)
		return Empty()
	}
	return Summarize(events, s.now(), s.lookback)
}
