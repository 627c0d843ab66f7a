package media

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
	bucket     string
	objects    map[string][]byte
	failUpload bool
	failSign   bool
}

func newMemStorage() *memStorage {
	return &memStorage{bucket: "studio-bucket", objects: map[string][]byte{}}
}

func (m *memStorage) Upload(_ context.Context, data []byte, prefix, ext, _ string) (string, error) {
	if m.failUpload {
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

// memStore is an in-memory stand-in for the Supabase store. Only asset
// inserts are exercised by pipeline tests.
type memStore struct {
	assets     []database.AssetRow
	nextID     int64
	failInsert bool
}

func (m *memStore) InsertAsset(_ context.Context, in database.AssetInsert) (*database.AssetRow, error) {
	if m.failInsert {
		return nil, errors.New("insert blew up")
	}
	m.nextID++
	row := database.AssetRow{
		ID:          m.nextID,
		UserID:      in.UserID,
		AssetType:   in.AssetType,
		Source:      in.Source,
		StoragePath: in.StoragePath,
		ProductID:   in.ProductID,
		Metadata:    in.Metadata,
	}
	m.assets = append(m.assets, row)
	return &row, nil
}

func (m *memStore) UpsertTemplate(context.Context, string, string, string, string, string) ([]database.TemplateRow, error) {
	return nil, nil
}

func (m *memStore) InsertProduct(context.Context, string, string, string, string) (int64, error) {
	return 0, nil
}

func (m *memStore) GetTemplateFilters(context.Context) (map[string][]string, error) {
	return nil, nil
}

func (m *memStore) GetTemplates(context.Context, string, string) ([]map[string]interface{}, error) {
	return nil, nil
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
