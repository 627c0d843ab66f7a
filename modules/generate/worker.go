package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/queue"
)

// Worker consumes queued generation jobs and runs them through the facade.
// Jobs are acked regardless of outcome; a failed generation is logged and
// dropped rather than redelivered.
type Worker struct {
	service *Service
	sub     *queue.Subscriber
	log     *logger.Logger
}

func NewWorker(service *Service, sub *queue.Subscriber, log *logger.Logger) *Worker {
	return &Worker{service: service, sub: sub, log: log}
}

// Start blocks on the subscription receive loop until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("👀 [Worker] Watching generation queue")
	if err := w.sub.Receive(ctx, w.process); err != nil {
		w.log.Error("❌ [Worker] Receive loop ended", "error", err)
	}
}

func (w *Worker) process(ctx context.Context, data []byte) error {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("failed to decode job payload: %w", err)
	}
	if len(job.ProductImageURLs) == 0 {
		return fmt.Errorf("job for user %q has no product images", job.User)
	}

	w.log.Info("📦 [Worker] Processing job", "user", job.User, "generation_type", job.GenerationType)

	input := ImageInput{URL: job.ProductImageURLs[0]}
	var err error
	switch job.GenerationType {
	case GenerationTypeVideo:
		_, err = w.service.ImageToVideo(ctx, input, job.Prompt, job.User)
	default:
		_, err = w.service.ImageToImage(ctx, input, job.Prompt, job.User)
	}
	if err != nil {
		return fmt.Errorf("generation job failed: %w", err)
	}

	w.log.Info("✅ [Worker] Job completed", "user", job.User)
	return nil
}
