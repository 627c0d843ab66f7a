package generate

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	StatusCompleted = "completed"
	StatusQueued    = "queued"

	GenerationTypeImage = "image"
	GenerationTypeVideo = "video"

	defaultAspectRatio = "1:1"
	videoAspectRatio   = "16:9"
	videoFPS           = 24
)

// GenerationResult is the terminal payload for one synchronous generation.
type GenerationResult struct {
	Status    string `json:"status"`
	BaseURL   string `json:"base_url"`
	SignedURL string `json:"signed_url"`
}

// ImageInput is the source image for image-to-image and image-to-video:
// raw uploaded bytes or a storage URL, plus an optional caller-supplied
// product association.
type ImageInput struct {
	Data      []byte
	URL       string
	ProductID string
}

// Job is the queue payload produced by the batch endpoint and consumed by
// the background worker.
type Job struct {
	ProductImageURLs   []string `json:"product_image_urls"`
	ReferenceImageURLs []string `json:"reference_image_urls"`
	Prompt             string   `json:"prompt"`
	User               string   `json:"user"`
	GenerationType     string   `json:"generation_type"`
}

// QueueResponse is the reply of the batch endpoint. MessageID is empty when
// the publisher runs in degraded mode.
type QueueResponse struct {
	Status    string                 `json:"status"`
	MessageID string                 `json:"message_id"`
	Data      map[string]interface{} `json:"data"`
}

// modelClient is the narrow slice of the genai SDK the facade needs. Tests
// substitute canned model responses behind it.
type modelClient interface {
	generateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	pollVideos(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	downloadVideo(ctx context.Context, video *genai.Video) ([]byte, error)
}

type vertexModel struct {
	client *genai.Client
}

func (m *vertexModel) generateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

func (m *vertexModel) generateVideos(ctx context.Context, model, prompt string, image *genai.Image, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return m.client.Models.GenerateVideos(ctx, model, prompt, image, config)
}

func (m *vertexModel) pollVideos(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return m.client.Operations.GetVideosOperation(ctx, op, nil)
}

// downloadVideo fetches the generated bytes. The Vertex backend inlines them
// on the operation response; the Gemini API backend requires a file download.
func (m *vertexModel) downloadVideo(ctx context.Context, video *genai.Video) ([]byte, error) {
	if len(video.VideoBytes) == 0 {
		m.client.Files.Download(ctx, video, nil)
	}
	if len(video.VideoBytes) == 0 {
		return nil, fmt.Errorf("no video bytes returned")
	}
	return video.VideoBytes, nil
}
