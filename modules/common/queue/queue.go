package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"nia-content-studio/modules/common/logger"
)

// ErrUnavailable reports a publisher running in degraded mode because the
// broker client could not be constructed at startup.
var ErrUnavailable = errors.New("queue publisher unavailable")

// Publisher sends generation job payloads to the configured topic.
type Publisher interface {
	Publish(ctx context.Context, payload map[string]interface{}) (string, error)
}

// Connect creates the Pub/Sub client shared by publisher and subscriber. The
// credentials file is used when it exists; otherwise Application Default
// Credentials apply.
func Connect(ctx context.Context, projectID, credentialsFile string, log *logger.Logger) (*pubsub.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err == nil {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}

	log.Info("✅ [Queue] Pub/Sub client initialized", "project", projectID)
	return client, nil
}

type pubsubPublisher struct {
	topic *pubsub.Topic
	log   *logger.Logger
}

// NewPublisher wraps the topic handle. The topic is not checked for existence
// here; a missing topic surfaces on the first publish.
func NewPublisher(client *pubsub.Client, topicName string, log *logger.Logger) Publisher {
	return &pubsubPublisher{topic: client.Topic(topicName), log: log}
}

// Publish marshals the payload to UTF-8 JSON, publishes it, and blocks until
// the broker acknowledges with a server-assigned message id.
func (p *pubsubPublisher) Publish(ctx context.Context, payload map[string]interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	p.log.Info("✅ Message published", "message_id", id, "bytes", len(data))
	return id, nil
}

type unavailablePublisher struct{}

func (unavailablePublisher) Publish(context.Context, map[string]interface{}) (string, error) {
	return "", ErrUnavailable
}

// Unavailable returns the degraded publisher used when broker construction
// fails at startup. Every Publish reports ErrUnavailable.
func Unavailable() Publisher {
	return unavailablePublisher{}
}

// Subscriber pulls generation jobs for the background worker.
type Subscriber struct {
	sub *pubsub.Subscription
	log *logger.Logger
}

func NewSubscriber(client *pubsub.Client, subscriptionName string, log *logger.Logger) *Subscriber {
	return &Subscriber{sub: client.Subscription(subscriptionName), log: log}
}

// Receive pulls messages until ctx is canceled. Every message is acked after
// the handler returns; handler errors are logged, never redelivered.
func (s *Subscriber) Receive(ctx context.Context, handle func(ctx context.Context, data []byte) error) error {
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		if err := handle(ctx, m.Data); err != nil {
			s.log.Error("❌ Message handler failed", "message_id", m.ID, "error", err)
		}
		m.Ack()
	})
}
