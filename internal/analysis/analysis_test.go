package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

const validReply = `{
  "timeline_entries": [
    {"id": "tl-1", "date": "2026-10-17", "category": "work", "title": "Pilot signed", "content": "Two schools.", "significance": "major"},
    {"id": "tl-2", "date": "2026-10-16", "category": "parkour", "title": "Kong", "content": "Clean kong."}
  ],
  "quadrant_updates": {
    "work": {"status": "thriving", "lastActivity": "2026-10-17", "activityPulse": true, "metrics": {"commits": 3}},
    "travel": {"status": "dormant", "lastActivity": "2026-09-01", "activityPulse": false}
  },
  "right_now": {
    "summary": "Busy but good.",
    "valuesAlignment": {"score": 72, "livingWell": ["building"], "needsAttention": ["rest"], "note": "ok"},
    "actionables": [{"id": "a1", "text": "Train twice", "priority": "high", "effort": "low", "impact": "high", "quadrant": "parkour"}],
    "celebration": "Pilot!",
    "friendlyNote": "Chill is better.",
    "quadrantStatuses": {"work": "neglected"},
    "balanceCheck": {"mood": "energized"}
  },
  "extracted_goals": [{"id": "g1", "text": "Ship v2", "category": "work", "progress": 42.5}, {"id": "g2", "text": "Live in Japan", "timeframe": "far"}],
  "extracted_inspiration": [{"id": "i1", "category": "movement", "type": "video", "title": "Storror", "content": "https://example.com/v"}],
  "unexpected_top_level": true
}`

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"bare fence", "```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"no closing fence", "```json\n{\"a\":1}", "{\"a\":1}"},
		{"no fence", "{\"a\":1}", "{\"a\":1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.in))
		})
	}
}

func TestParseResponse_Fenced(t *testing.T) {
	raw, err := ParseResponse("```json\n" + validReply + "\n```")
	require.NoError(t, err)
	assert.True(t, Validate(raw))
}

func TestParseResponse_NotJSON(t *testing.T) {
	_, err := ParseResponse("Sure! Here is your analysis.")
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseResponse("[1,2,3]")
	assert.ErrorIs(t, err, ErrParse)

	_, err = ParseResponse("{\"a\": ")
	assert.ErrorIs(t, err, ErrParse)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(json.RawMessage(validReply)))

	tests := []struct {
		name string
		raw  string
	}{
		{"missing right_now", `{"timeline_entries": [], "quadrant_updates": {}}`},
		{"missing timeline", `{"quadrant_updates": {}, "right_now": {"summary":"","valuesAlignment":{},"actionables":[],"celebration":"","friendlyNote":""}}`},
		{"missing friendlyNote", `{"timeline_entries": [], "quadrant_updates": {}, "right_now": {"summary":"","valuesAlignment":{},"actionables":[],"celebration":""}}`},
		{"entry without id", `{"timeline_entries": [{"date":"d","category":"work","title":"t","content":"c"}], "quadrant_updates": {}, "right_now": {"summary":"","valuesAlignment":{},"actionables":[],"celebration":"","friendlyNote":""}}`},
		{"update without status", `{"timeline_entries": [], "quadrant_updates": {"work": {"lastActivity": "x"}}, "right_now": {"summary":"","valuesAlignment":{},"actionables":[],"celebration":"","friendlyNote":""}}`},
		{"right_now not object", `{"timeline_entries": [], "quadrant_updates": {}, "right_now": "soon"}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Validate(json.RawMessage(tt.raw)))
		})
	}
}

func TestValidate_EmptySectionsAllowed(t *testing.T) {
	raw := `{"timeline_entries": [], "quadrant_updates": {}, "right_now": {"summary":"","valuesAlignment":{},"actionables":[],"celebration":"","friendlyNote":""}}`
	assert.True(t, Validate(json.RawMessage(raw)))
}

func TestDecode(t *testing.T) {
	r, err := Decode(json.RawMessage(validReply))
	require.NoError(t, err)

	require.Len(t, r.TimelineEntries, 2)
	assert.Equal(t, models.SignificanceMajor, r.TimelineEntries[0].Significance)
	assert.Equal(t, models.SignificanceMinor, r.TimelineEntries[1].Significance)

	require.Contains(t, r.QuadrantUpdates, models.CategoryWork)
	assert.Equal(t, models.StatusThriving, r.QuadrantUpdates[models.CategoryWork].Status)
	assert.Nil(t, r.QuadrantUpdates[models.CategoryTravel].Metrics)

	assert.Equal(t, "Busy but good.", r.RightNow.Summary)
	assert.Equal(t, 72.0, r.RightNow.ValuesAlignment.Score)
	assert.Equal(t, models.CategoryParkour, r.RightNow.Actionables[0].Quadrant)
	assert.Equal(t, map[string]any{"balanceCheck": map[string]any{"mood": "energized"}}, r.RightNow.Extra)

	require.Len(t, r.Goals, 2)
	assert.Equal(t, models.TimeframeNear, r.Goals[0].Timeframe)
	require.NotNil(t, r.Goals[0].Progress)
	assert.Equal(t, 42.5, *r.Goals[0].Progress)
	assert.Equal(t, models.TimeframeFar, r.Goals[1].Timeframe)

	require.Len(t, r.Inspiration, 1)
	assert.Equal(t, models.TypeVideo, r.Inspiration[0].Type)
}

func TestDecode_LooseTypes(t *testing.T) {
	raw := `{
  "timeline_entries": [{"id": 12, "date": "2026-10-17", "category": "work", "title": "T", "content": "C"}],
  "quadrant_updates": {
    "work": {"status": "balanced", "lastActivity": "today", "activityPulse": "true", "metrics": "n/a"},
    "travel": {"status": "dormant", "activityPulse": 0}
  },
  "right_now": {
    "summary": "s",
    "valuesAlignment": {"score": "85%", "livingWell": ["a", 2], "needsAttention": null, "note": 1},
    "actionables": [{"id": 1, "text": "Walk", "priority": "high", "effort": 2, "impact": 3}],
    "celebration": "",
    "friendlyNote": ""
  },
  "extracted_goals": [{"id": "g", "text": "Run", "progress": "50"}, {"id": "g2", "text": "Read", "progress": "most"}],
  "extracted_inspiration": [{"id": 9, "category": "quotes", "type": "quote", "title": "Q", "content": "c"}]
}`
	require.True(t, Validate(json.RawMessage(raw)))

	r, err := Decode(json.RawMessage(raw))
	require.NoError(t, err)
	assert.Zero(t, r.Skipped)

	assert.Equal(t, "12", r.TimelineEntries[0].ID)
	assert.True(t, r.QuadrantUpdates[models.CategoryWork].ActivityPulse)
	assert.Nil(t, r.QuadrantUpdates[models.CategoryWork].Metrics)
	assert.False(t, r.QuadrantUpdates[models.CategoryTravel].ActivityPulse)

	assert.Equal(t, 85.0, r.RightNow.ValuesAlignment.Score)
	assert.Equal(t, []string{"a", "2"}, r.RightNow.ValuesAlignment.LivingWell)
	assert.Equal(t, []string{}, r.RightNow.ValuesAlignment.NeedsAttention)
	assert.Equal(t, "1", r.RightNow.ValuesAlignment.Note)
	require.Len(t, r.RightNow.Actionables, 1)
	assert.Equal(t, models.Actionable{ID: "1", Text: "Walk", Priority: "high", Effort: "2", Impact: "3"}, r.RightNow.Actionables[0])

	require.Len(t, r.Goals, 2)
	require.NotNil(t, r.Goals[0].Progress)
	assert.Equal(t, 50.0, *r.Goals[0].Progress)
	assert.Nil(t, r.Goals[1].Progress)

	assert.Equal(t, "9", r.Inspiration[0].ID)
}

func TestDecode_SkipsOnlyUnreadableEntities(t *testing.T) {
	raw := `{
  "timeline_entries": [
    {"id": "ok", "date": "d", "category": "work", "title": "T", "content": "C"},
    {"id": "bad", "date": "d", "category": "work", "title": ["x"], "content": "C"}
  ],
  "quadrant_updates": {"work": {"status": {"level": 1}}, "travel": {"status": "dormant"}},
  "right_now": {"summary": "s", "valuesAlignment": {}, "actionables": ["just text", {"text": "Walk"}], "celebration": "", "friendlyNote": ""},
  "extracted_goals": {"id": "not a list"},
  "extracted_inspiration": [null]
}`
	r, err := Decode(json.RawMessage(raw))
	require.NoError(t, err)

	require.Len(t, r.TimelineEntries, 1)
	assert.Equal(t, "ok", r.TimelineEntries[0].ID)
	assert.NotContains(t, r.QuadrantUpdates, models.CategoryWork)
	assert.Contains(t, r.QuadrantUpdates, models.CategoryTravel)
	require.Len(t, r.RightNow.Actionables, 1)
	assert.Equal(t, "Walk", r.RightNow.Actionables[0].Text)
	assert.Empty(t, r.Goals)
	assert.Empty(t, r.Inspiration)
	assert.Equal(t, 5, r.Skipped)
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	assert.False(t, c.IsConfigured())
	_, err := c.Analyze(context.Background(), "s", "u")
	assert.True(t, errors.Is(err, apperr.ErrNotConfigured))
}

// messageReply wraps text in a messages API response body.
func messageReply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       DefaultModel,
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
	})
}

func TestClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k-123", r.Header.Get("X-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("Anthropic-Version"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if assert.NoError(t, json.Unmarshal(body, &req)) {
			assert.Equal(t, DefaultModel, req.Model)
			assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
			if assert.Len(t, req.System, 1) {
				assert.Equal(t, "system text", req.System[0].Text)
			}
			if assert.Len(t, req.Messages, 1) && assert.Len(t, req.Messages[0].Content, 1) {
				assert.Equal(t, "user", req.Messages[0].Role)
				assert.Equal(t, "user text", req.Messages[0].Content[0].Text)
			}
		}

		messageReply(w, "```json\n"+validReply+"\n```")
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k-123", APIURL: srv.URL})
	raw, err := c.Analyze(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.True(t, Validate(raw))
}

func TestClient_ErrorStatus(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "k", APIURL: srv.URL}).Analyze(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))
	assert.Contains(t, err.Error(), "status 429")
	assert.Equal(t, 1, calls, "requests are not retried")
}

func TestClient_UnparseableReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		messageReply(w, "I cannot help with that.")
	}))
	defer srv.Close()

	_, err := NewClient(Config{APIKey: "k", APIURL: srv.URL}).Analyze(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrParse)
}
