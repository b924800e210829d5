package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/lifedash/internal/apperr"
	"github.com/starford/lifedash/internal/models"
)

// ErrEmpty is returned when an export holds no saved or liked posts.
var ErrEmpty = fmt.Errorf("importer: no saved or liked posts found: %w", apperr.ErrInvalidInput)

// Store is the persistence the importer needs.
type Store interface {
	InspirationContents(ctx context.Context) (map[string]struct{}, error)
	CreateInspiration(ctx context.Context, it models.InspirationItem) error
}

// Indexer receives every newly stored item.
type Indexer interface {
	IndexInspiration(it models.InspirationItem) error
}

// Stats summarizes one import.
type Stats struct {
	Parsed     int `json:"parsed"`
	New        int `json:"new"`
	Duplicates int `json:"duplicates"`
}

// Importer stores parsed export items, skipping any whose content is already
// present.
type Importer struct {
	store  Store
	index  Indexer
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Importer. index may be nil.
func New(store Store, index Indexer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, index: index, logger: logger, now: time.Now}
}

// Import parses data and inserts the items whose content is new. Items that
// repeat content within the same export count as duplicates too.
func (im *Importer) Import(ctx context.Context, data []byte) (Stats, error) {
	items, err := Parse(data, im.now())
	if err != nil {
		return Stats{}, err
	}
	if len(items) == 0 {
		return Stats{}, ErrEmpty
	}

	existing, err := im.store.InspirationContents(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("importer: load existing: %w", err)
	}

	stats := Stats{Parsed: len(items)}
	for _, it := range items {
		if _, dup := existing[it.Content]; dup {
			continue
		}
		if err := im.store.CreateInspiration(ctx, it); err != nil {
			if errors.Is(err, apperr.ErrAlreadyExists) {
				continue
			}
			return stats, fmt.Errorf("importer: insert %s: %w", it.ID, err)
		}
		existing[it.Content] = struct{}{}
		stats.New++

		if im.index != nil {
			if err := im.index.IndexInspiration(it); err != nil {
				im.logger.Warn("importer: index failed", slog.String("id", it.ID), slog.String("error", err.Error()))
			}
		}
	}
	stats.Duplicates = stats.Parsed - stats.New

	im.logger.Info("importer: done",
		slog.Int("parsed", stats.Parsed),
		slog.Int("new", stats.New),
		slog.Int("duplicates", stats.Duplicates),
	)
	return stats, nil
}
