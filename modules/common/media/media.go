package media

import (
	"context"
	"fmt"

	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/storage"
	"nia-content-studio/modules/common/utils"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"

	SourceUploaded  = "uploaded"
	SourceGenerated = "generated"
)

// SaveRequest carries one piece of media through the persistence pipeline.
// Source is the asset provenance: SourceUploaded or SourceGenerated.
type SaveRequest struct {
	Data       []byte
	PathPrefix string
	Extension  string
	MIME       string
	User       string
	AssetType  string
	Source     string
	Prompt     string
	ProductID  string
}

// SaveResult identifies the persisted asset and both access URLs.
type SaveResult struct {
	AssetID   int64
	PublicURL string
	SignedURL string
}

// Pipeline persists media end to end: object upload, metadata derivation,
// asset row insert, signed URL mint.
type Pipeline struct {
	storage storage.Service
	store   database.Store
	log     *logger.Logger
}

func NewPipeline(st storage.Service, db database.Store, log *logger.Logger) *Pipeline {
	return &Pipeline{storage: st, store: db, log: log}
}

// Save uploads the bytes, derives descriptive metadata, records the asset row
// and returns the public plus signed URLs. An upload failure aborts the whole
// operation. An insert failure after a successful upload surfaces as an error
// and leaves the blob in place: assets have no deletion path, so there is no
// compensating cleanup here.
func (p *Pipeline) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	url, err := p.storage.Upload(ctx, req.Data, req.PathPrefix, req.Extension, req.MIME)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	metadata := map[string]interface{}{
		"size_bytes": len(req.Data),
		"format":     req.Extension,
		"mime":       req.MIME,
	}
	if req.AssetType == AssetTypeImage {
		if w, h, dimErr := utils.ImageDimensions(req.Data); dimErr == nil {
			metadata["width"] = w
			metadata["height"] = h
		} else {
			p.log.Warn("⚠️  Could not read image dimensions", "error", dimErr)
		}
	}
	if req.Prompt != "" {
		metadata["prompt"] = req.Prompt
	}
	if req.ProductID != "" {
		metadata["product_id"] = req.ProductID
	}

	row, err := p.store.InsertAsset(ctx, database.AssetInsert{
		UserID:      req.User,
		AssetType:   req.AssetType,
		Source:      req.Source,
		StoragePath: url,
		ProductID:   req.ProductID,
		Metadata:    metadata,
	})
	if err != nil {
		p.log.Error("❌ Asset insert failed after upload, blob remains",
			"storage_path", url, "error", err)
		return nil, fmt.Errorf("failed to record asset: %w", err)
	}

	key, _ := p.storage.KeyFromURL(url)
	signed, err := p.storage.SignURL(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign url: %w", err)
	}

	p.log.Info("✅ Media persisted", "asset_id", row.ID, "storage_path", url)
	return &SaveResult{AssetID: row.ID, PublicURL: url, SignedURL: signed}, nil
}
