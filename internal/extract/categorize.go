package extract

import (
	"math"

	"github.com/starford/lifedash/internal/models"
)

// categoryOrder is the scoring order. On equal scores the earlier category wins.
var categoryOrder = []models.Category{
	models.CategoryWork,
	models.CategoryParkour,
	models.CategoryRelationships,
	models.CategoryTravel,
}

var categoryVocabulary = mustVocabulary(
	[]string{
		"startup", "maupka", "ignite", "company", "business", "pilot",
		"customers", "product", "building", "coding", "enterprise",
		"funding", "grant", "revenue", "marketing", "sales", "investor",
		"tyndall", "research", "argyou", "edtech", "teacher", "student",
	},
	[]string{
		"parkour", "training", "vaults", "kong", "handspring", "movement",
		"exercise", "workout", "calisthenics", "fitness", "dive roll",
		"turn vault", "helicoptero", "planche", "pullup", "pistol squat",
	},
	[]string{
		"ula", "ulka", "friends", "family", "social", "lunch with",
		"meeting with", "talked to", "couple", "relationship",
	},
	[]string{
		"japan", "japanese", "tokyo", "mext", "travel", "trip",
		"abroad", "language learning", "n2", "n3", "anki", "japanese language",
	},
)

// minCategoryScore is the number of distinct keyword hits a note needs
// before it is assigned to a quadrant.
const minCategoryScore = 2

// Categorize scores the note body and filename against each quadrant's
// keywords. It reports false when no quadrant reaches minCategoryScore.
func Categorize(content, filename string) (models.Category, bool) {
	scores := categoryVocabulary.distinct(content, filename)

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	if scores[best] < minCategoryScore {
		return "", false
	}
	return categoryOrder[best], true
}

// MoodLabel is the coarse mood derived from journal text.
type MoodLabel string

// Mood labels.
const (
	MoodEnergized MoodLabel = "energized"
	MoodStressed  MoodLabel = "stressed"
	MoodBalanced  MoodLabel = "balanced"
)

// MoodAnalysis is the result of Mood.
type MoodAnalysis struct {
	Mood     MoodLabel `json:"mood"`
	Score    float64   `json:"moodScore"`
	Positive int       `json:"positiveSignals"`
	Stress   int       `json:"stressSignals"`
	Balance  int       `json:"balanceSignals"`
}

const (
	moodPositive = iota
	moodStress
	moodBalance
)

var moodVocabulary = mustVocabulary(
	[]string{
		"excited", "great", "amazing", "happy", "good", "fantastic",
		"love", "awesome", "wonderful", "progress", "success", "achieved",
		"fun", "enjoying", "productive",
	},
	[]string{
		"worried", "stressed", "anxious", "overwhelmed", "tired",
		"frustrated", "stuck", "difficult", "hard", "problem",
		"behind", "overdoing", "burned", "struggle",
	},
	[]string{
		"balance", "rest", "chill", "relax", "break", "free time",
		"living", "enjoying life",
	},
)

// Mood scores journal text as (positive - stress) / (positive + stress + 1),
// rounded to two decimals. Words are matched as substrings, so "great" also
// hits "greatest".
func Mood(content string) MoodAnalysis {
	counts := moodVocabulary.distinct(content)
	p, s := counts[moodPositive], counts[moodStress]

	raw := float64(p-s) / float64(p+s+1)

	label := MoodBalanced
	switch {
	case raw > 0.3:
		label = MoodEnergized
	case raw < -0.3:
		label = MoodStressed
	}

	return MoodAnalysis{
		Mood:     label,
		Score:    math.Round(raw*100) / 100,
		Positive: p,
		Stress:   s,
		Balance:  counts[moodBalance],
	}
}
