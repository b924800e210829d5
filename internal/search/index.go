// Package search keeps a bleve full-text index over timeline entries and
// inspiration items.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/starford/lifedash/internal/models"
)

// Document kinds.
const (
	KindTimeline    = "timeline"
	KindInspiration = "inspiration"
)

// Index wraps a bleve index.
type Index struct {
	index bleve.Index
}

// Document is what gets indexed for one timeline entry or inspiration item.
type Document struct {
	Kind     string
	RefID    string
	Title    string
	Content  string
	Category string
	Date     string
}

// Result is one search hit.
type Result struct {
	Kind      string              `json:"kind"`
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Category  string              `json:"category"`
	Date      string              `json:"date,omitempty"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Source lists everything that should be searchable.
type Source interface {
	Timeline(ctx context.Context, category models.Category, limit int) ([]models.TimelineEntry, error)
	Inspiration(ctx context.Context, category models.InspirationCategory) ([]models.InspirationItem, error)
}

// Open opens or creates the index at path. An empty path gives an in-memory
// index that is lost on close.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("search: create memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("search: create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("search: open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Kind", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("RefID", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("Title", text)
	docMapping.AddFieldMappingsAt("Content", text)
	docMapping.AddFieldMappingsAt("Category", bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt("Date", bleve.NewKeywordFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

func docID(kind, id string) string {
	return kind + ":" + id
}

// IndexTimeline adds or replaces a timeline entry.
func (i *Index) IndexTimeline(e models.TimelineEntry) error {
	return i.index.Index(docID(KindTimeline, e.ID), timelineDoc(e))
}

// IndexInspiration adds or replaces an inspiration item.
func (i *Index) IndexInspiration(it models.InspirationItem) error {
	return i.index.Index(docID(KindInspiration, it.ID), inspirationDoc(it))
}

// Delete removes a document.
func (i *Index) Delete(kind, id string) error {
	return i.index.Delete(docID(kind, id))
}

func timelineDoc(e models.TimelineEntry) Document {
	return Document{
		Kind:     KindTimeline,
		RefID:    e.ID,
		Title:    e.Title,
		Content:  e.Content,
		Category: string(e.Category),
		Date:     e.Date,
	}
}

func inspirationDoc(it models.InspirationItem) Document {
	content := it.Content
	if it.PersonName != "" {
		content = it.PersonName + "\n" + content
	}
	if len(it.Tags) > 0 {
		content += "\n" + strings.Join(it.Tags, " ")
	}
	return Document{
		Kind:     KindInspiration,
		RefID:    it.ID,
		Title:    it.Title,
		Content:  content,
		Category: string(it.Category),
		Date:     it.AddedAt,
	}
}

// Rebuild indexes every timeline entry and inspiration item from src in one
// batch. Existing documents with the same ids are replaced.
func (i *Index) Rebuild(ctx context.Context, src Source) (int, error) {
	entries, err := src.Timeline(ctx, "", 0)
	if err != nil {
		return 0, fmt.Errorf("search: list timeline: %w", err)
	}
	items, err := src.Inspiration(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("search: list inspiration: %w", err)
	}

	batch := i.index.NewBatch()
	for _, e := range entries {
		if err := batch.Index(docID(KindTimeline, e.ID), timelineDoc(e)); err != nil {
			return 0, fmt.Errorf("search: batch index %s: %w", e.ID, err)
		}
	}
	for _, it := range items {
		if err := batch.Index(docID(KindInspiration, it.ID), inspirationDoc(it)); err != nil {
			return 0, fmt.Errorf("search: batch index %s: %w", it.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("search: commit batch: %w", err)
	}
	return len(entries) + len(items), nil
}

// Search runs a query string query (quotes, +/-, fuzzy ~ are supported).
func (i *Index) Search(queryStr string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	query := bleve.NewQueryStringQuery(queryStr)

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Kind", "RefID", "Title", "Category", "Date"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{Score: hit.Score, Fragments: hit.Fragments}
		r.Kind, _ = hit.Fields["Kind"].(string)
		r.ID, _ = hit.Fields["RefID"].(string)
		r.Title, _ = hit.Fields["Title"].(string)
		r.Category, _ = hit.Fields["Category"].(string)
		r.Date, _ = hit.Fields["Date"].(string)
		out = append(out, r)
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
