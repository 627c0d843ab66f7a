package generate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/media"
	"nia-content-studio/modules/common/storage"
)

// mockModel substitutes the genai SDK behind the facade's seam and records
// what the facade sent.
type mockModel struct {
	contentResp  *genai.GenerateContentResponse
	contentErr   error
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig

	videoOp     *genai.GenerateVideosOperation
	videoErr    error
	lastPrompt  string
	lastImage   *genai.Image
	lastVideoCf *genai.GenerateVideosConfig
	pollOps     []*genai.GenerateVideosOperation
	pollCalls   int
	downloadErr error
}

func (m *mockModel) generateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.lastModel = model
	m.lastContents = contents
	m.lastConfig = config
	if m.contentErr != nil {
		return nil, m.contentErr
	}
	return m.contentResp, nil
}

func (m *mockModel) generateVideos(_ context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	m.lastModel = model
	m.lastPrompt = prompt
	m.lastImage = image
	m.lastVideoCf = config
	if m.videoErr != nil {
		return nil, m.videoErr
	}
	return m.videoOp, nil
}

func (m *mockModel) pollVideos(context.Context, *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	if m.pollCalls >= len(m.pollOps) {
		return nil, errors.New("unexpected poll")
	}
	op := m.pollOps[m.pollCalls]
	m.pollCalls++
	return op, nil
}

func (m *mockModel) downloadVideo(_ context.Context, video *genai.Video) ([]byte, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	return video.VideoBytes, nil
}

// inlineImageResponse builds a model response carrying one inline PNG.
func inlineImageResponse(data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{
					{InlineData: &genai.Blob{Data: data, MIMEType: "image/png"}},
				},
			},
		}},
	}
}

// doneVideoOperation builds a finished operation carrying one clip.
func doneVideoOperation(data []byte) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{
				{Video: &genai.Video{VideoBytes: data, MIMEType: "video/mp4"}},
			},
		},
	}
}

// memStorage is an in-memory stand-in for the GCS gateway.
type memStorage struct {
	bucket     string
	objects    map[string][]byte
	failUpload bool
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

type insertedProduct struct {
	name        string
	category    string
	productType string
	hash        string
}

// memStore is an in-memory stand-in for the Supabase store.
type memStore struct {
	assets      []database.AssetRow
	nextID      int64
	failInsert  bool
	products    []insertedProduct
	productID   int64
	failProduct bool
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

func (m *memStore) InsertProduct(_ context.Context, name, category, productType, hash string) (int64, error) {
	if m.failProduct {
		return 0, errors.New("product insert blew up")
	}
	m.products = append(m.products, insertedProduct{name, category, productType, hash})
	return m.productID, nil
}

func (m *memStore) UpsertTemplate(context.Context, string, string, string, string, string) ([]database.TemplateRow, error) {
	return nil, nil
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

// mockPublisher records published payloads.
type mockPublisher struct {
	payloads []map[string]interface{}
	id       string
	err      error
}

func (p *mockPublisher) Publish(_ context.Context, payload map[string]interface{}) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.payloads = append(p.payloads, payload)
	return p.id, nil
}

// newTestService builds a facade over the in-memory fakes.
func newTestService(model modelClient, st *memStorage, db *memStore) *Service {
	log := logger.NewNop()
	return &Service{
		model:        model,
		storage:      st,
		pipeline:     media.NewPipeline(st, db, log),
		log:          log,
		imageModel:   "image-model-test",
		videoModel:   "video-model-test",
		pollInterval: time.Millisecond,
	}
}
