package templates

import (
	"context"
	"fmt"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/storage"
)

// Service manages the reusable prompt template catalog.
type Service struct {
	store   database.Store
	storage storage.Service
	log     *logger.Logger
}

func NewService(store database.Store, st storage.Service, log *logger.Logger) *Service {
	return &Service{store: store, storage: st, log: log}
}

// Upsert stores the template image under the shared templates prefix and
// inserts or replaces the catalog row keyed by (template_name, category,
// product_type). Last writer wins; the fresh public URL replaces any
// previous image URL on the row.
func (s *Service) Upsert(ctx context.Context, name, category, productType, prompt string, image []byte, ext, mime string) ([]database.TemplateRow, error) {
	url, err := s.storage.Upload(ctx, image, fmt.Sprintf("templates/%s", category), ext, mime)
	if err != nil {
		return nil, fmt.Errorf("template image upload failed: %w", err)
	}

	rows, err := s.store.UpsertTemplate(ctx, name, category, productType, url, prompt)
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ [Templates] Template stored", "template_name", name, "url", url)
	return rows, nil
}

// Filters returns the distinct product types grouped by category.
func (s *Service) Filters(ctx context.Context) (map[string][]string, error) {
	return s.store.GetTemplateFilters(ctx)
}

// List returns the templates matching both filters, each augmented with a
// fresh signed URL for its stored image.
func (s *Service) List(ctx context.Context, category, productType string) ([]map[string]interface{}, error) {
	rows, err := s.store.GetTemplates(ctx, category, productType)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		url, _ := row["image_url"].(string)
		key, ok := s.storage.KeyFromURL(url)
		if !ok {
			continue
		}
		signed, err := s.storage.SignURL(key)
		if err != nil {
			s.log.Warn("⚠️ [Templates] Signing failed", "key", key, "error", err)
			continue
		}
		row["signed_url"] = signed
	}
	return rows, nil
}
