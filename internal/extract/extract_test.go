package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/lifedash/internal/models"
)

func TestTags_UnionsFrontmatterAndInline(t *testing.T) {
	fm := map[string]any{"tags": []any{"Work", "Japan"}}
	got := Tags(fm, "Studied #japan and kept my #Focus today.")
	assert.Equal(t, []string{"focus", "japan", "work"}, got)
}

func TestTags_FrontmatterString(t *testing.T) {
	got := Tags(map[string]any{"tags": "Parkour"}, "no inline tags")
	assert.Equal(t, []string{"parkour"}, got)
}

func TestTags_OrderIndependentAndIdempotent(t *testing.T) {
	a := Tags(nil, "#alpha then #beta then #gamma")
	b := Tags(nil, "#gamma #beta #alpha #beta")
	assert.Equal(t, a, b)
	assert.Equal(t, a, Tags(nil, "#alpha then #beta then #gamma"))
}

func TestTags_Empty(t *testing.T) {
	assert.Empty(t, Tags(nil, "nothing tagged here"))
}

func TestPeople(t *testing.T) {
	content := "@marco lunch with [[Sam O'Neill]] and Ula. [[project ideas]] [[A B C D]] then James."
	got := People(content)
	assert.Equal(t, []string{"James", "Sam O'Neill", "Ula", "marco"}, got)
}

func TestPeople_OrderIndependent(t *testing.T) {
	a := People("Tom and Ruth met @kay")
	b := People("@kay met Ruth and Tom, Tom again")
	assert.Equal(t, a, b)
}

func TestPeople_KnownNamesAreWholeWords(t *testing.T) {
	assert.Empty(t, People("Tomorrow the ruthless Kayak trip"))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		want     models.Category
		ok       bool
	}{
		{"single quadrant", "Kong vaults and parkour training tonight", "log.md", models.CategoryParkour, true},
		{"one hit is not enough", "a startup idea", "idea.md", "", false},
		{"no hits", "quiet day at home", "day.md", "", false},
		{"filename counts", "building it out", "startup-notes.md", models.CategoryWork, true},
		{"keyword counted once", "startup startup startup", "x.md", "", false},
		{"tie prefers work over parkour", "startup company parkour training", "x.md", models.CategoryWork, true},
		{"tie prefers parkour over travel", "parkour training in tokyo japan", "x.md", models.CategoryParkour, true},
		{"case insensitive", "TOKYO Trip", "x.md", models.CategoryTravel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Categorize(tt.content, tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMood_Energized(t *testing.T) {
	m := Mood("Excited and happy, an amazing and wonderful, productive week")
	assert.Equal(t, 5, m.Positive)
	assert.Equal(t, 0, m.Stress)
	assert.Equal(t, MoodEnergized, m.Mood)
	assert.InDelta(t, 0.83, m.Score, 1e-9)
}

func TestMood_Neutral(t *testing.T) {
	m := Mood("The sky was blue.")
	assert.Equal(t, MoodBalanced, m.Mood)
	assert.Zero(t, m.Score)
}

func TestMood_Stressed(t *testing.T) {
	m := Mood("Tired and overwhelmed, feeling stuck and behind. Took a break.")
	assert.Equal(t, 4, m.Stress)
	assert.Equal(t, 1, m.Balance)
	assert.Equal(t, MoodStressed, m.Mood)
	assert.InDelta(t, -0.8, m.Score, 1e-9)
}

func TestAnnotate(t *testing.T) {
	n := models.Note{
		Filename:    "2026-10-01.md",
		Content:     "Parkour training with @Killian, worked on kong vaults. #movement",
		Frontmatter: map[string]any{"tags": []any{"Training"}},
	}
	Annotate(&n)
	require.Equal(t, models.CategoryParkour, n.Category)
	assert.Equal(t, []string{"movement", "training"}, n.Tags)
	assert.Equal(t, []string{"Killian"}, n.People)
}
