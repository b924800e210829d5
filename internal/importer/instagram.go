// Package importer turns a social-media data export into inspiration items.
package importer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/orsinium-labs/stopwords"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

// Sources written on imported items.
const (
	SourceSaved = "Instagram (saved)"
	SourceLiked = "Instagram (liked)"
)

const (
	maxTitleRunes   = 100
	maxKeywordTags  = 3
	minKeywordRunes = 4
)

var (
	savedKeys = []string{"saved_saved_media", "saved_media"}
	likedKeys = []string{"likes_media_likes", "liked_posts"}
)

var categoryRules = []struct {
	category models.InspirationCategory
	re       *regexp.Regexp
}{
	{models.InspirationMovement, regexp.MustCompile(`(?i)parkour|freerun|movement|training|vault|flip|storror`)},
	{models.InspirationInnovation, regexp.MustCompile(`(?i)startup|tech|ai|code|innovat|build`)},
	{models.InspirationTravel, regexp.MustCompile(`(?i)japan|travel|tokyo|trip|adventure|explore`)},
	{models.InspirationPhilosophy, regexp.MustCompile(`(?i)quote|wisdom|stoic|philosophy|mindset|life`)},
}

var english = stopwords.MustGet("en")

type savedPost struct {
	Title         string `json:"title"`
	MediaListData []struct {
		Title    string `json:"title"`
		MediaURL string `json:"media_url"`
		URI      string `json:"uri"`
	} `json:"media_list_data"`
	StringMapData map[string]struct {
		Value     string `json:"value"`
		Timestamp int64  `json:"timestamp"`
	} `json:"string_map_data"`
}

type likedPost struct {
	Title          string `json:"title"`
	StringListData []struct {
		Href      string `json:"href"`
		Value     string `json:"value"`
		Timestamp int64  `json:"timestamp"`
	} `json:"string_list_data"`
}

// Categorize maps free text to an inspiration category by keyword. Text
// matching none of the rules is about people.
func Categorize(text string) models.InspirationCategory {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return models.InspirationPeople
}

// Parse reads an export with a saved collection, a liked collection or both.
// Anything that is not a JSON object is rejected with apperr.ErrInvalidInput;
// unrecognized keys and malformed collections are ignored.
func Parse(data []byte, now time.Time) ([]models.InspirationItem, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil || root == nil {
		return nil, fmt.Errorf("importer: export is not a JSON object: %w", apperr.ErrInvalidInput)
	}

	today := now.UTC().Format(time.DateOnly)
	var items []models.InspirationItem

	var saved []savedPost
	if raw, ok := firstKey(root, savedKeys); ok {
		_ = json.Unmarshal(raw, &saved)
	}
	for i, p := range saved {
		title := p.Title
		if title == "" {
			title = fmt.Sprintf("Saved post %d", i+1)
		}
		var url string
		if len(p.MediaListData) > 0 {
			url = p.MediaListData[0].URI
			if url == "" {
				url = p.MediaListData[0].MediaURL
			}
		}
		addedAt := today
		if ts := p.StringMapData["Saved on"].Timestamp; ts > 0 {
			addedAt = time.Unix(ts, 0).UTC().Format(time.DateOnly)
		}
		typ := models.TypeImage
		if strings.Contains(url, "video") {
			typ = models.TypeVideo
		}
		items = append(items, models.InspirationItem{
			ID:       itemID("ig-saved-", firstNonEmpty(url, title)),
			Category: Categorize(title),
			Type:     typ,
			Title:    truncate(title, maxTitleRunes),
			Content:  firstNonEmpty(url, title),
			Source:   SourceSaved,
			AddedAt:  addedAt,
			Tags:     tags(title, "saved"),
		})
	}

	var liked []likedPost
	if raw, ok := firstKey(root, likedKeys); ok {
		_ = json.Unmarshal(raw, &liked)
	}
	for i, p := range liked {
		title := p.Title
		if title == "" {
			title = fmt.Sprintf("Liked post %d", i+1)
		}
		var url string
		addedAt := today
		if len(p.StringListData) > 0 {
			url = p.StringListData[0].Href
			if ts := p.StringListData[0].Timestamp; ts > 0 {
				addedAt = time.Unix(ts, 0).UTC().Format(time.DateOnly)
			}
		}
		items = append(items, models.InspirationItem{
			ID:       itemID("ig-liked-", firstNonEmpty(url, title)),
			Category: Categorize(title + url),
			Type:     models.TypeImage,
			Title:    truncate(title, maxTitleRunes),
			Content:  firstNonEmpty(url, title),
			Source:   SourceLiked,
			AddedAt:  addedAt,
			Tags:     tags(title, "liked"),
		})
	}

	return items, nil
}

// itemID derives the id from the content, so separate imports never reuse
// an id for different items.
func itemID(prefix, content string) string {
	return prefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(content)).String()
}

func firstKey(root map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := root[k]; ok && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}

// tags returns the platform and collection tags followed by up to three
// distinct non-stopword title words.
func tags(title, collection string) []string {
	out := []string{"instagram", collection}
	seen := map[string]bool{"instagram": true, collection: true}

	var words []string
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(w)) < minKeywordRunes || english.Contains(w) || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == maxKeywordTags {
			break
		}
	}
	sort.Strings(words)
	return append(out, words...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
