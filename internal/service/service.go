package service

import (
	"context"
	"fmt"

	"pokedex/catalog/internal/config"
	"pokedex/catalog/internal/domain"
	"pokedex/catalog/internal/state"

	log "github.com/sirupsen/logrus"
)

// PageSource is the part of the catalog repository the warmer walks
type PageSource interface {
	FetchListPage(ctx context.Context, requestKey string) (*domain.ListPage, error)
}

// WarmResult summarizes a warm run
type WarmResult struct {
	Pages     int
	Items     int
	Exhausted bool
	// LastCursor is where the next run would continue, empty once exhausted
	LastCursor string
}

// Warmer walks the catalog page by page through the repository so every page ends up in the
// local cache
type Warmer struct {
	source       PageSource
	stateManager state.StateManager
	rootKey      string
	maxPages     int
	saveInterval int
}

// NewWarmer creates a warmer. stateManager may be nil, progress is then not saved.
func NewWarmer(source PageSource, stateManager state.StateManager, cfg config.WarmConfig, rootKey string) *Warmer {
	saveInterval := cfg.SaveInterval
	if saveInterval <= 0 {
		saveInterval = 1
	}

	return &Warmer{
		source:       source,
		stateManager: stateManager,
		rootKey:      rootKey,
		maxPages:     cfg.MaxPages,
		saveInterval: saveInterval,
	}
}

func (w *Warmer) Warm(ctx context.Context) (WarmResult, error) {
	var result WarmResult

	cursor, err := w.startCursor(ctx)
	if err != nil {
		return result, err
	}
	if cursor != w.rootKey {
		log.Infof("🔄 Continue warming from %s", cursor)
	}

	for {
		if w.maxPages > 0 && result.Pages >= w.maxPages {
			log.Infof("⏸️ Reached page limit of %d", w.maxPages)
			break
		}
		if err := ctx.Err(); err != nil {
			w.checkpoint(ctx, cursor)
			return result, err
		}

		page, err := w.source.FetchListPage(ctx, cursor)
		if err != nil {
			log.Errorf("❌ Failed to warm page %s: %v", cursor, err)
			w.checkpoint(ctx, cursor)
			result.LastCursor = cursor
			return result, fmt.Errorf("failed to warm page %s: %w", cursor, err)
		}

		result.Pages++
		result.Items += len(page.Results)
		log.Debugf("📦 Warmed page %d (%d items)", result.Pages, len(page.Results))

		if !page.HasNext() {
			result.Exhausted = true
			break
		}
		cursor = *page.Next

		if result.Pages%w.saveInterval == 0 {
			w.checkpoint(ctx, cursor)
		}
	}

	if result.Exhausted {
		if w.stateManager != nil {
			if err := w.stateManager.Reset(ctx); err != nil {
				log.Errorf("Failed to reset warm progress: %v", err)
			}
		}
		log.Infof("✅ Catalog fully cached: %d pages, %d items", result.Pages, result.Items)
		return result, nil
	}

	result.LastCursor = cursor
	w.checkpoint(ctx, cursor)
	log.Infof("✅ Warmed %d pages, %d items", result.Pages, result.Items)

	return result, nil
}

func (w *Warmer) startCursor(ctx context.Context) (string, error) {
	if w.stateManager == nil {
		return w.rootKey, nil
	}

	cursor, err := w.stateManager.GetLastCursor(ctx)
	if err != nil {
		log.Errorf("Failed to get last cursor: %v", err)
		return "", err
	}
	if cursor == "" {
		return w.rootKey, nil
	}
	return cursor, nil
}

func (w *Warmer) checkpoint(ctx context.Context, cursor string) {
	if w.stateManager == nil {
		return
	}
	// Context may already be cancelled, the checkpoint must still be written
	if err := w.stateManager.SetLastCursor(context.WithoutCancel(ctx), cursor); err != nil {
		log.Errorf("Failed to save warm progress: %v", err)
	}
}
