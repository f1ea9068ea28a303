// Package feed contains the live-location feed sources: a realtime
// websocket stream, a Google Pub/Sub subscription, and a no-op source for
// environments without a feed.
package feed

import (
	"context"
	"log/slog"

	"wander/config"
	"wander/internal/domain/constants"
	"wander/internal/domain/service"
	"wander/internal/errors"

	"go.uber.org/fx"
)

// noopFeed is used when no feed is configured; the map serves cities only.
type noopFeed struct {
	logger *slog.Logger
}

func (f *noopFeed) Subscribe(_ context.Context, _ service.FeedHandler) (func(), error) {
	f.logger.Debug("[NoopFeed] Feed disabled, no live users will appear")

	return func() {}, nil
}

// Params holds dependencies for the feed source, injected by Fx
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewFeedSource creates a FeedSource based on configuration
func NewFeedSource(params Params) (service.FeedSource, error) {
	cfg := params.Config.Feed
	logger := params.Logger

	if cfg == nil || cfg.Provider == "" {
		logger.Info("Feed not configured, using no-op source")

		return &noopFeed{logger: logger}, nil
	}

	switch cfg.Provider {
	case constants.FeedProviderWebsocket:
		if cfg.URL == "" {
			return nil, errors.New("url is required for websocket provider")
		}
		logger.Info("Using websocket live feed",
			slog.String("url", cfg.URL),
		)

		return NewWebsocketFeed(cfg.URL, logger), nil

	case constants.FeedProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.SubscriptionID == "" {
			return nil, errors.New("subscription ID is required for google provider")
		}
		logger.Info("Using Google Pub/Sub live feed",
			slog.String("project_id", cfg.ProjectID),
			slog.String("subscription_id", cfg.SubscriptionID),
		)

		return NewPubSubFeed(cfg.ProjectID, cfg.SubscriptionID, logger), nil

	default:
		return nil, errors.Errorf("unknown feed provider: %s", cfg.Provider)
	}
}
