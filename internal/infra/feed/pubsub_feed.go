package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"wander/internal/domain/service"
	"wander/internal/errors"

	"cloud.google.com/go/pubsub/v2"
)

// pubsubFeed implements service.FeedSource over a Google Pub/Sub
// subscription, for deployments where the presence service publishes
// position updates through a broker instead of a direct socket.
type pubsubFeed struct {
	projectID      string
	subscriptionID string
	logger         *slog.Logger
}

// NewPubSubFeed creates a Pub/Sub-backed feed source.
func NewPubSubFeed(projectID, subscriptionID string, logger *slog.Logger) service.FeedSource {
	return &pubsubFeed{
		projectID:      projectID,
		subscriptionID: subscriptionID,
		logger:         logger,
	}
}

// Subscribe starts receiving in the background. The returned teardown is
// synchronous and idempotent.
func (f *pubsubFeed) Subscribe(ctx context.Context, handler service.FeedHandler) (func(), error) {
	client, err := pubsub.NewClient(ctx, f.projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Pub/Sub client")
	}

	subscriber := client.Subscriber(f.subscriptionID)

	receiveCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		err := subscriber.Receive(receiveCtx, func(_ context.Context, msg *pubsub.Message) {
			var event service.FeedEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				f.logger.Warn("Dropping malformed feed message", slog.Any("error", err))
				// Ack anyway: redelivery cannot fix a malformed payload.
				msg.Ack()

				return
			}

			handler(event)
			msg.Ack()
		})
		if err != nil && receiveCtx.Err() == nil {
			f.logger.Error("Feed receive terminated", slog.Any("error", err))
		}
	}()

	f.logger.Info("Subscribed to Pub/Sub feed",
		slog.String("project_id", f.projectID),
		slog.String("subscription_id", f.subscriptionID),
	)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			wg.Wait()
			if err := client.Close(); err != nil {
				f.logger.Warn("Failed to close Pub/Sub client", slog.Any("error", err))
			}
		})
	}

	return unsubscribe, nil
}
