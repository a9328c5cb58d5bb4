package serve

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/api"
	"github.com/litterscan/litterscan/internal/buildinfo"
	"github.com/litterscan/litterscan/internal/classifier"
	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/engine"
	"github.com/litterscan/litterscan/internal/httpclient"
	"github.com/litterscan/litterscan/internal/imagestore"
	"github.com/litterscan/litterscan/internal/ingest"
	"github.com/litterscan/litterscan/internal/insights"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/mqtt"
	"github.com/litterscan/litterscan/internal/narrative"
	"github.com/litterscan/litterscan/internal/notification"
	"github.com/litterscan/litterscan/internal/observability"
	"github.com/litterscan/litterscan/internal/suncalc"
	"github.com/litterscan/litterscan/internal/telemetry"
)

const sentryFlushTimeout = 2 * time.Second

// Command creates the serve command that runs the HTTP service.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the detection ingest and analytics HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Run(ctx, settings)
		},
	}
}

// Run wires every component from settings and serves until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := logger.Global().Module("serve")
	build := buildinfo.Current()

	if err := telemetry.InitSentry(&settings.Sentry, build.GetVersion()); err != nil {
		log.Warn("error reporting unavailable", logger.Error(err))
	}
	defer telemetry.Flush(sentryFlushTimeout)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	persister, err := datastore.NewPersister(&settings.Store)
	if err != nil {
		return err
	}
	store, err := datastore.New(settings.Store.Capacity, persister, datastore.WithMetrics(metrics.Datastore))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", logger.Error(err))
		}
	}()
	loaded := store.Load(ctx)
	log.Info("detection store ready",
		logger.String("backend", persister.Backend()),
		logger.Int("records", loaded),
		logger.Int("capacity", store.Capacity()))

	images, err := imagestore.New(&settings.Images)
	if err != nil {
		return err
	}

	hc := httpclient.New(nil)
	defer hc.Close()

	cls, err := classifier.New(&settings.Vision, hc)
	if err != nil {
		return err
	}
	gen, err := narrative.New(&settings.Narrative, hc)
	if err != nil {
		return err
	}

	analyticsOpts := analytics.OptionsFromSettings(&settings.Analytics)
	synth := insights.NewSynthesizer(gen,
		insights.WithTimeout(settings.Narrative.Timeout),
		insights.WithCacheTTL(settings.Narrative.CacheTTL),
		insights.WithAnalyticsOptions(analyticsOpts),
		insights.WithMetrics(metrics.Collaborator))

	engineOpts := []engine.Option{engine.WithAnalyticsOptions(analyticsOpts)}
	if settings.Analytics.SunObserverEnabled() {
		engineOpts = append(engineOpts, engine.WithSunCalc(
			suncalc.NewSunCalc(settings.Analytics.Latitude, settings.Analytics.Longitude, time.Local)))
	}
	eng := engine.New(store, synth, engineOpts...)

	ingestOpts := []ingest.Option{
		ingest.WithClassifyTimeout(settings.Vision.Timeout),
		ingest.WithMetrics(metrics.Ingest, metrics.Collaborator),
	}

	if settings.MQTT.Enabled {
		client, err := mqtt.NewClient(&settings.MQTT, metrics.MQTT)
		if err != nil {
			return err
		}
		if err := client.Connect(ctx); err != nil {
			// paho keeps retrying in the background
			log.Warn("MQTT broker not reachable at startup", logger.Error(err))
		}
		defer client.Disconnect()
		ingestOpts = append(ingestOpts, ingest.WithPublisher(mqtt.NewPublisher(client, settings.MQTT.Topic)))
	}

	if settings.Notification.Enabled {
		notifier, err := notification.NewHotspotNotifier(&settings.Notification, metrics.Notification)
		if err != nil {
			return err
		}
		log.Info("hotspot alerts enabled",
			logger.Any("services", notifier.Services()),
			logger.Int("threshold", settings.Notification.HotspotThreshold))
		ingestOpts = append(ingestOpts, ingest.WithNotifier(notifier, settings.Notification.HotspotThreshold))
	}

	svc := ingest.NewService(cls, images, store, ingestOpts...)
	defer svc.Wait()

	server, err := api.New(settings, eng, svc, images,
		api.WithMetrics(metrics.HTTP),
		api.WithBuildInfo(build))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })

	if settings.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings.Telemetry, metrics)
		if err != nil {
			return err
		}
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	log.Info("litterscan started",
		logger.String("version", build.GetVersion()),
		logger.String("listen", settings.WebServer.Listen),
		logger.String("vision", cls.Provider()),
		logger.String("narrative", gen.Provider()))

	err = g.Wait()
	log.Info("litterscan stopped")
	return err
}
