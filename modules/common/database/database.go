package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/supabase-community/supabase-go"

	"nia-content-studio/modules/common/logger"
)

// TemplateRow mirrors the templates table. Templates are keyed by the
// composite (template_name, category, product_type).
type TemplateRow struct {
	ID           int64  `json:"id,omitempty"`
	TemplateName string `json:"template_name"`
	Category     string `json:"category"`
	ProductType  string `json:"product_type"`
	ImageURL     string `json:"image_url"`
	Prompt       string `json:"prompt"`
	UpdatedDate  string `json:"updated_date,omitempty"`
}

// AssetInsert is the payload for a new assets row. Source is the asset
// provenance: "uploaded" or "generated".
type AssetInsert struct {
	UserID      string
	AssetType   string
	Source      string
	StoragePath string
	ProductID   string
	Metadata    map[string]interface{}
}

// AssetRow mirrors the assets table. Rows are immutable once inserted.
type AssetRow struct {
	ID          int64                  `json:"id"`
	UserID      string                 `json:"user_id"`
	AssetType   string                 `json:"asset_type"`
	Source      string                 `json:"source"`
	StoragePath string                 `json:"storage_path"`
	ProductID   string                 `json:"product_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedDate string                 `json:"created_date,omitempty"`
}

// Store is the metadata store gateway backed by Supabase.
type Store interface {
	UpsertTemplate(ctx context.Context, name, category, productType, imageURL, prompt string) ([]TemplateRow, error)
	InsertAsset(ctx context.Context, asset AssetInsert) (*AssetRow, error)
	InsertProduct(ctx context.Context, name, category, productType, hash string) (int64, error)
	GetTemplateFilters(ctx context.Context) (map[string][]string, error)
	GetTemplates(ctx context.Context, category, productType string) ([]map[string]interface{}, error)
	GetUserAssets(ctx context.Context, user string) ([]map[string]interface{}, error)
	AssetStoragePaths(ctx context.Context) ([]string, error)
	TemplateImageURLs(ctx context.Context) ([]string, error)
}

type supabaseStore struct {
	client *supabase.Client
	log    *logger.Logger
}

// New creates the Supabase-backed store.
func New(supabaseURL, supabaseKey string, log *logger.Logger) (Store, error) {
	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	log.Info("✅ [Database] Supabase client initialized")
	return &supabaseStore{client: client, log: log}, nil
}

// UpsertTemplate inserts or replaces the template row matching the composite
// key (template_name, category, product_type). Last writer wins.
func (s *supabaseStore) UpsertTemplate(ctx context.Context, name, category, productType, imageURL, prompt string) ([]TemplateRow, error) {
	s.log.Info("📝 Upserting template",
		"template_name", name, "category", category, "product_type", productType)

	row := map[string]interface{}{
		"template_name": name,
		"category":      category,
		"product_type":  productType,
		"image_url":     imageURL,
		"prompt":        prompt,
		"updated_date":  time.Now().UTC().Format(time.RFC3339),
	}

	data, _, err := s.client.From("templates").
		Insert(row, true, "template_name,category,product_type", "", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to upsert template: %w", err)
	}

	var rows []TemplateRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse upsert response: %w", err)
	}

	s.log.Info("✅ Template upserted", "template_name", name)
	return rows, nil
}

// InsertAsset writes one assets row and returns it with the store-assigned id.
func (s *supabaseStore) InsertAsset(ctx context.Context, asset AssetInsert) (*AssetRow, error) {
	s.log.Info("💾 Inserting asset",
		"user_id", asset.UserID, "asset_type", asset.AssetType, "source", asset.Source)

	row := map[string]interface{}{
		"user_id":      asset.UserID,
		"asset_type":   asset.AssetType,
		"source":       asset.Source,
		"storage_path": asset.StoragePath,
	}
	if asset.ProductID != "" {
		row["product_id"] = asset.ProductID
	}
	if asset.Metadata != nil {
		row["metadata"] = asset.Metadata
	}

	data, _, err := s.client.From("assets").
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset: %w", err)
	}

	var rows []AssetRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse asset response: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no asset row returned")
	}

	s.log.Info("✅ Asset inserted", "id", rows[0].ID)
	return &rows[0], nil
}

// InsertProduct writes one products row and returns the generated id. An
// empty hash is omitted from the row.
func (s *supabaseStore) InsertProduct(ctx context.Context, name, category, productType, hash string) (int64, error) {
	s.log.Info("💾 Inserting product", "product_name", name, "category", category)

	row := map[string]interface{}{
		"product_name": name,
		"category":     category,
		"product_type": productType,
	}
	if hash != "" {
		row["product_hash"] = hash
	}

	data, _, err := s.client.From("products").
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse product response: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("no product row returned")
	}

	s.log.Info("✅ Product inserted", "id", rows[0].ID)
	return rows[0].ID, nil
}

// GetTemplateFilters reads every (category, product_type) pair and groups the
// product types by category, deduplicated and sorted.
func (s *supabaseStore) GetTemplateFilters(ctx context.Context) (map[string][]string, error) {
	data, _, err := s.client.From("templates").
		Select("category,product_type", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query template filters: %w", err)
	}

	var rows []struct {
		Category    string `json:"category"`
		ProductType string `json:"product_type"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse filter response: %w", err)
	}

	seen := map[string]map[string]bool{}
	for _, r := range rows {
		if seen[r.Category] == nil {
			seen[r.Category] = map[string]bool{}
		}
		seen[r.Category][r.ProductType] = true
	}

	filters := make(map[string][]string, len(seen))
	for category, types := range seen {
		list := make([]string, 0, len(types))
		for t := range types {
			list = append(list, t)
		}
		sort.Strings(list)
		filters[category] = list
	}
	return filters, nil
}

// GetTemplates returns the template rows matching both filters, as stored.
func (s *supabaseStore) GetTemplates(ctx context.Context, category, productType string) ([]map[string]interface{}, error) {
	s.log.Info("🔍 Fetching templates", "category", category, "product_type", productType)

	data, _, err := s.client.From("templates").
		Select("*", "", false).
		Eq("category", category).
		Eq("product_type", productType).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse template response: %w", err)
	}

	s.log.Info("✅ Templates fetched", "rows", len(rows))
	return rows, nil
}

// AssetStoragePaths returns the storage URL of every assets row. Used by
// the orphan sweep.
func (s *supabaseStore) AssetStoragePaths(ctx context.Context) ([]string, error) {
	data, _, err := s.client.From("assets").
		Select("storage_path", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query asset paths: %w", err)
	}

	var rows []struct {
		StoragePath string `json:"storage_path"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse asset path response: %w", err)
	}

	paths := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.StoragePath != "" {
			paths = append(paths, r.StoragePath)
		}
	}
	return paths, nil
}

// TemplateImageURLs returns the image URL of every templates row. Used by
// the orphan sweep.
func (s *supabaseStore) TemplateImageURLs(ctx context.Context) ([]string, error) {
	data, _, err := s.client.From("templates").
		Select("image_url", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query template image urls: %w", err)
	}

	var rows []struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse template image url response: %w", err)
	}

	urls := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ImageURL != "" {
			urls = append(urls, r.ImageURL)
		}
	}
	return urls, nil
}

// GetUserAssets returns every assets row owned by the user, as stored.
func (s *supabaseStore) GetUserAssets(ctx context.Context, user string) ([]map[string]interface{}, error) {
	s.log.Info("🔍 Fetching user assets", "user_id", user)

	data, _, err := s.client.From("assets").
		Select("*", "", false).
		Eq("user_id", user).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse asset response: %w", err)
	}

	s.log.Info("✅ Assets fetched", "rows", len(rows))
	return rows, nil
}
