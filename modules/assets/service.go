package assets

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/media"
	"nia-content-studio/modules/common/storage"
	"nia-content-studio/modules/common/utils"
)

// Service handles user media uploads and asset listings.
type Service struct {
	pipeline *media.Pipeline
	store    database.Store
	storage  storage.Service
	log      *logger.Logger
}

func NewService(pipeline *media.Pipeline, store database.Store, st storage.Service, log *logger.Logger) *Service {
	return &Service{pipeline: pipeline, store: store, storage: st, log: log}
}

// ProcessUploads stores a batch of uploaded files under the user's inputs
// prefix, one asset row each. A failed file records its error and the batch
// continues; outcomes keep the input order.
func (s *Service) ProcessUploads(ctx context.Context, files []*multipart.FileHeader, user, productID string) []UploadOutcome {
	outcomes := make([]UploadOutcome, 0, len(files))
	for _, header := range files {
		outcome := UploadOutcome{Filename: header.Filename}

		data, err := readUpload(header)
		if err != nil {
			outcome.Err = err
			s.log.Warn("⚠️ [Assets] Upload read failed", "filename", header.Filename, "error", err)
			outcomes = append(outcomes, outcome)
			continue
		}

		mime := header.Header.Get("Content-Type")
		if mime == "" {
			mime = "image/png"
		}

		saved, err := s.pipeline.Save(ctx, media.SaveRequest{
			Data:       data,
			PathPrefix: fmt.Sprintf("%s/inputs", user),
			Extension:  utils.ExtFromFilename(header.Filename),
			MIME:       mime,
			User:       user,
			AssetType:  media.AssetTypeImage,
			Source:     media.SourceUploaded,
			ProductID:  productID,
		})
		if err != nil {
			outcome.Err = err
			s.log.Warn("⚠️ [Assets] Upload save failed", "filename", header.Filename, "error", err)
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.URL = saved.PublicURL
		outcome.AssetID = saved.AssetID
		outcomes = append(outcomes, outcome)
	}

	s.log.Info("📦 [Assets] Batch upload processed", "user", user, "files", len(files))
	return outcomes
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return data, nil
}

// ListUserAssets returns the user's asset rows, each augmented with a fresh
// signed URL when its storage path points into the bucket. Rows whose path
// lives elsewhere pass through untouched.
func (s *Service) ListUserAssets(ctx context.Context, user string) ([]map[string]interface{}, error) {
	rows, err := s.store.GetUserAssets(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		path, _ := row["storage_path"].(string)
		key, ok := s.storage.KeyFromURL(path)
		if !ok {
			continue
		}
		signed, err := s.storage.SignURL(key)
		if err != nil {
			s.log.Warn("⚠️ [Assets] Signing failed", "key", key, "error", err)
			continue
		}
		row["signed_url"] = signed
	}
	return rows, nil
}
