package assets

import (
	"context"
	"time"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/storage"
)

// Reconciler periodically compares bucket contents against the metadata
// store and reports objects no row references. It never deletes anything;
// an orphaned blob is expected after an insert failure and cleanup stays a
// human decision.
type Reconciler struct {
	store    database.Store
	storage  storage.Service
	interval time.Duration
	log      *logger.Logger
}

func NewReconciler(store database.Store, st storage.Service, interval time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, storage: st, interval: interval, log: log}
}

// Start runs the sweep loop until ctx is canceled.
func (r *Reconciler) Start(ctx context.Context) {
	r.log.Info("👀 [Reconciler] Orphan sweep started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error("❌ [Reconciler] Sweep failed", "error", err)
			}
		}
	}
}

// Sweep returns every bucket object that no asset or template row points at.
func (r *Reconciler) Sweep(ctx context.Context) ([]string, error) {
	keys, err := r.storage.ListKeys(ctx, "")
	if err != nil {
		return nil, err
	}

	paths, err := r.store.AssetStoragePaths(ctx)
	if err != nil {
		return nil, err
	}
	urls, err := r.store.TemplateImageURLs(ctx)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, u := range append(paths, urls...) {
		if key, ok := r.storage.KeyFromURL(u); ok {
			referenced[key] = true
		}
	}

	var orphans []string
	for _, key := range keys {
		if referenced[key] {
			continue
		}
		orphans = append(orphans, key)
		r.log.Warn("⚠️ [Reconciler] Orphaned object", "key", key)
	}

	r.log.Info("✅ [Reconciler] Sweep complete",
		"objects", len(keys), "referenced", len(referenced), "orphans", len(orphans))
	return orphans, nil
}
