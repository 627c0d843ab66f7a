package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/storage"
)

// memStorage is an in-memory stand-in for the GCS gateway.
type memStorage struct {
	bucket      string
	objects     map[string][]byte
	failUploads int
	failSign    bool
}

func newMemStorage() *memStorage {
	return &memStorage{bucket: "studio-bucket", objects: map[string][]byte{}}
}

func (m *memStorage) Upload(_ context.Context, data []byte, prefix, ext, _ string) (string, error) {
	if m.failUploads > 0 {
		m.failUploads--
		return "", errors.New("upload blew up")
	}
	key := storage.ObjectKey(prefix, ext)
	m.objects[key] = data
	return m.PublicURL(key), nil
}

func (m *memStorage) Download(_ context.Context, url string) ([]byte, error) {
	key, ok := m.KeyFromURL(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNoMatch, url)
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return data, nil
}

func (m *memStorage) SignURL(key string) (string, error) {
	if m.failSign {
		return "", errors.New("sign blew up")
	}
	return "https://signed.example/" + key + "?sig=test", nil
}

func (m *memStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", m.bucket, key)
}

func (m *memStorage) KeyFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", m.bucket)
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (m *memStorage) ListKeys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// memStore is an in-memory stand-in for the Supabase store. Upserts apply
// the same last-writer-wins semantics as the real conflict target.
type memStore struct {
	templates  map[string]database.TemplateRow
	upserts    int
	failUpsert bool

	filters   map[string][]string
	rows      []map[string]interface{}
	failQuery bool

	lastCategory string
	lastType     string
}

func (m *memStore) UpsertTemplate(_ context.Context, name, category, productType, imageURL, prompt string) ([]database.TemplateRow, error) {
	if m.failUpsert {
		return nil, errors.New("upsert blew up")
	}
	if m.templates == nil {
		m.templates = map[string]database.TemplateRow{}
	}

	key := name + "|" + category + "|" + productType
	row, ok := m.templates[key]
	if !ok {
		row = database.TemplateRow{
			ID:           int64(len(m.templates) + 1),
			TemplateName: name,
			Category:     category,
			ProductType:  productType,
		}
	}
	row.ImageURL = imageURL
	row.Prompt = prompt
	m.templates[key] = row
	m.upserts++
	return []database.TemplateRow{row}, nil
}

func (m *memStore) GetTemplateFilters(context.Context) (map[string][]string, error) {
	if m.failQuery {
		return nil, errors.New("query blew up")
	}
	return m.filters, nil
}

func (m *memStore) GetTemplates(_ context.Context, category, productType string) ([]map[string]interface{}, error) {
	m.lastCategory = category
	m.lastType = productType
	if m.failQuery {
		return nil, errors.New("query blew up")
	}
	return m.rows, nil
}

func (m *memStore) InsertAsset(context.Context, database.AssetInsert) (*database.AssetRow, error) {
	return nil, nil
}

func (m *memStore) InsertProduct(context.Context, string, string, string, string) (int64, error) {
	return 0, nil
}

func (m *memStore) GetUserAssets(context.Context, string) ([]map[string]interface{}, error) {
	return nil, nil
}

func (m *memStore) AssetStoragePaths(context.Context) ([]string, error) {
	return nil, nil
}

func (m *memStore) TemplateImageURLs(context.Context) ([]string, error) {
	return nil, nil
}
