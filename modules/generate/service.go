package generate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/genai"

	"nia-content-studio/modules/common/config"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/media"
	"nia-content-studio/modules/common/storage"
)

var (
	errNoImage = errors.New("no image generated")
	errNoVideo = errors.New("no video generated")
)

const videoPollInterval = 10 * time.Second

// Service is the media generation facade. Every call is one-shot and
// blocking: invoke the model, persist the output through the asset
// pipeline, return a terminal result.
type Service struct {
	model        modelClient
	storage      storage.Service
	pipeline     *media.Pipeline
	log          *logger.Logger
	imageModel   string
	videoModel   string
	pollInterval time.Duration
}

func NewService(client *genai.Client, st storage.Service, pipeline *media.Pipeline, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		model:        &vertexModel{client: client},
		storage:      st,
		pipeline:     pipeline,
		log:          log,
		imageModel:   cfg.ImageModelID,
		videoModel:   cfg.VideoModelID,
		pollInterval: videoPollInterval,
	}
}

// TextToImage generates one image from a prompt and stores it under the
// user's t2i prefix. An empty aspect ratio falls back to square.
func (s *Service) TextToImage(ctx context.Context, prompt, user, aspectRatio string) (*GenerationResult, error) {
	if aspectRatio == "" {
		aspectRatio = defaultAspectRatio
	}

	s.log.Info("🎨 [Generate] Text-to-image request", "user", user, "aspect_ratio", aspectRatio)

	contents := []*genai.Content{
		{Parts: []*genai.Part{genai.NewPartFromText(prompt)}},
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspectRatio},
	}

	resp, err := s.model.generateContent(ctx, s.imageModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	imageData, err := firstInlineImage(resp)
	if err != nil {
		return nil, err
	}

	return s.persistImage(ctx, imageData, prompt, user, "t2i", "")
}

// ImageToImage restyles a source image under the prompt and stores the
// output under the user's i2i prefix. When the input arrives as raw bytes
// with no product association, the input itself is first persisted as an
// uploaded asset and that asset becomes the product association of the
// generated output.
func (s *Service) ImageToImage(ctx context.Context, input ImageInput, prompt, user string) (*GenerationResult, error) {
	s.log.Info("🎨 [Generate] Image-to-image request", "user", user)

	imageData, productID, err := s.resolveInput(ctx, input, user)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{
			genai.NewPartFromBytes(imageData, "image/png"),
			genai.NewPartFromText(prompt),
		}},
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	resp, err := s.model.generateContent(ctx, s.imageModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	outputData, err := firstInlineImage(resp)
	if err != nil {
		return nil, err
	}

	return s.persistImage(ctx, outputData, prompt, user, "i2i", productID)
}

// ImageVariations produces a styled variation of a stored product image.
// It is image-to-image with the source pinned to a storage URL and a
// mandatory product association.
func (s *Service) ImageVariations(ctx context.Context, imageURL, productID, prompt, user string) (*GenerationResult, error) {
	return s.ImageToImage(ctx, ImageInput{URL: imageURL, ProductID: productID}, prompt, user)
}

// ImageToVideo animates a source image into a short clip and stores it
// under the user's veo prefix. The call blocks through the long-running
// operation until the clip is ready.
func (s *Service) ImageToVideo(ctx context.Context, input ImageInput, prompt, user string) (*GenerationResult, error) {
	s.log.Info("🎬 [Generate] Image-to-video request", "user", user)

	imageData, productID, err := s.resolveInput(ctx, input, user)
	if err != nil {
		return nil, err
	}

	image := &genai.Image{
		ImageBytes: imageData,
		MIMEType:   "image/png",
	}
	config := &genai.GenerateVideosConfig{
		AspectRatio: videoAspectRatio,
		FPS:         genai.Ptr[int32](videoFPS),
	}

	op, err := s.model.generateVideos(ctx, s.videoModel, prompt, image, config)
	if err != nil {
		return nil, fmt.Errorf("video generation failed: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
		op, err = s.model.pollVideos(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("video operation poll failed: %w", err)
		}
		s.log.Info("🔍 [Generate] Video operation pending", "user", user, "done", op.Done)
	}

	if op.Error != nil {
		return nil, fmt.Errorf("video generation failed: %v", op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, errNoVideo
	}

	videoData, err := s.model.downloadVideo(ctx, op.Response.GeneratedVideos[0].Video)
	if err != nil {
		return nil, fmt.Errorf("video download failed: %w", err)
	}

	result, err := s.pipeline.Save(ctx, media.SaveRequest{
		Data:       videoData,
		PathPrefix: fmt.Sprintf("%s/veo", user),
		Extension:  "mp4",
		MIME:       "video/mp4",
		User:       user,
		AssetType:  media.AssetTypeVideo,
		Source:     media.SourceGenerated,
		Prompt:     prompt,
		ProductID:  productID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ [Generate] Video completed", "user", user, "url", result.PublicURL)
	return &GenerationResult{
		Status:    StatusCompleted,
		BaseURL:   result.PublicURL,
		SignedURL: result.SignedURL,
	}, nil
}

// resolveInput turns an ImageInput into raw bytes plus the product
// association for the generated output. Stored URLs are fetched back from
// the bucket; raw bytes without a product association are persisted as an
// uploaded asset whose id becomes the association.
func (s *Service) resolveInput(ctx context.Context, input ImageInput, user string) ([]byte, string, error) {
	if input.URL != "" {
		data, err := s.storage.Download(ctx, input.URL)
		if err != nil {
			return nil, "", fmt.Errorf("source image fetch failed: %w", err)
		}
		return data, input.ProductID, nil
	}

	if len(input.Data) == 0 {
		return nil, "", fmt.Errorf("no source image provided")
	}
	if input.ProductID != "" {
		return input.Data, input.ProductID, nil
	}

	saved, err := s.pipeline.Save(ctx, media.SaveRequest{
		Data:       input.Data,
		PathPrefix: fmt.Sprintf("%s/inputs", user),
		Extension:  "png",
		MIME:       "image/png",
		User:       user,
		AssetType:  media.AssetTypeImage,
		Source:     media.SourceUploaded,
	})
	if err != nil {
		return nil, "", fmt.Errorf("input image save failed: %w", err)
	}

	s.log.Info("💾 [Generate] Input image persisted", "user", user, "asset_id", saved.AssetID)
	return input.Data, strconv.FormatInt(saved.AssetID, 10), nil
}

// persistImage runs generated PNG bytes through the asset pipeline and
// wraps the outcome in a terminal result.
func (s *Service) persistImage(ctx context.Context, data []byte, prompt, user, kind, productID string) (*GenerationResult, error) {
	result, err := s.pipeline.Save(ctx, media.SaveRequest{
		Data:       data,
		PathPrefix: fmt.Sprintf("%s/%s", user, kind),
		Extension:  "png",
		MIME:       "image/png",
		User:       user,
		AssetType:  media.AssetTypeImage,
		Source:     media.SourceGenerated,
		Prompt:     prompt,
		ProductID:  productID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("✅ [Generate] Image completed", "user", user, "url", result.PublicURL)
	return &GenerationResult{
		Status:    StatusCompleted,
		BaseURL:   result.PublicURL,
		SignedURL: result.SignedURL,
	}, nil
}

// firstInlineImage extracts the image bytes from the first candidate of a
// model response.
func firstInlineImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errNoImage
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return nil, errNoImage
	}
	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, errNoImage
}
