package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"wander/config"
	"wander/internal/delivery"
	"wander/internal/delivery/http"
	"wander/internal/delivery/http/router/handler"
	"wander/internal/infra/feed"
	logs "wander/internal/infra/log"
	"wander/internal/infra/persistence/postgres"
	"wander/internal/usecase"
	"wander/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			startPipeline,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewCityRepository,
			postgres.NewProfileRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			feed.NewFeedSource,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			newEnricherService,
			newFilterService,
			impl.NewAggregationService,
			impl.NewMapService,
		),
	)
}

// newEnricherService creates the enricher with the configured local
// threshold, falling back to the built-in default when unset.
func newEnricherService(cfg *config.Config, logger *slog.Logger) usecase.EnrichUsecase {
	var threshold float64
	if cfg.Map != nil {
		threshold = cfg.Map.LocalThresholdKm
	}

	return impl.NewEnricherService(threshold, logger)
}

// newFilterService creates the filter state machine with the configured
// debounce window.
func newFilterService(cfg *config.Config, logger *slog.Logger) usecase.FilterUsecase {
	var window time.Duration
	if cfg.Map != nil {
		window = cfg.Map.DebounceWindow
	}

	return impl.NewFilterService(window, logger)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewMapHandler,
			handler.NewFilterHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// startPipeline loads the catalog, subscribes to the live feed, and tears the
// pipeline down on shutdown.
func startPipeline(lc fx.Lifecycle, mapUC usecase.MapUsecase, filterUC usecase.FilterUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return mapUC.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			filterUC.Close()

			return mapUC.Close()
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
