package vertexai

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"nia-content-studio/modules/common/config"
	"nia-content-studio/modules/common/logger"
)

// NewClient builds the generation model client. When GOOGLE_CLOUD_API_KEY is
// set the client talks to the Gemini API directly; otherwise it uses the
// Vertex AI backend for the configured project and location.
func NewClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*genai.Client, error) {
	if cfg.GoogleCloudAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GoogleCloudAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
		}
		log.Info("✅ [GenAI] Client initialized (Gemini API backend)")
		return client, nil
	}

	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err == nil {
			os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)
			log.Info("✅ [GenAI] Using service account credentials", "path", cfg.CredentialsFile)
		} else {
			log.Warn("⚠️  [GenAI] Credentials file not found, falling back to Application Default Credentials", "path", cfg.CredentialsFile)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GoogleCloudProject,
		Location: cfg.GoogleCloudLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	log.Info("✅ [GenAI] Client initialized (Vertex AI backend)",
		"project", cfg.GoogleCloudProject, "location", cfg.GoogleCloudLocation)
	return client, nil
}
