package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fedround/pkg/events"
	"github.com/absmach/fedround/pkg/mqtt"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/sdk"
	"github.com/absmach/fedround/pkg/server"
	httpserver "github.com/absmach/fedround/pkg/server/http"
	"github.com/absmach/fedround/pkg/tracing"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "participant"
	defHTTPPort   = "9000"
	envPrefixHTTP = "FEDROUND_PARTICIPANT_HTTP_"
	envPrefixMQTT = "FEDROUND_PARTICIPANT_MQTT_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel       string        `env:"FEDROUND_PARTICIPANT_LOG_LEVEL"       envDefault:"info"`
	ID             string        `env:"FEDROUND_PARTICIPANT_ID"`
	Name           string        `env:"FEDROUND_PARTICIPANT_NAME"`
	CoordinatorURL string        `env:"FEDROUND_COORDINATOR_URL"             envDefault:"http://localhost:8080"`
	AdvertiseURL   string        `env:"FEDROUND_PARTICIPANT_ADVERTISE_URL"   envDefault:"http://localhost:9000"`
	RegisterRetry  time.Duration `env:"FEDROUND_PARTICIPANT_REGISTER_RETRY"  envDefault:"5s"`
	Features       int           `env:"FEDROUND_PARTICIPANT_FEATURES"        envDefault:"4"`
	Samples        int           `env:"FEDROUND_PARTICIPANT_SAMPLES"         envDefault:"256"`
	TaskSeed       uint64        `env:"FEDROUND_PARTICIPANT_TASK_SEED"       envDefault:"10"`
	DataSeed       uint64        `env:"FEDROUND_PARTICIPANT_DATA_SEED"       envDefault:"1"`
	OTELURL        url.URL       `env:"FEDROUND_PARTICIPANT_OTEL_URL"`
	TraceRatio     float64       `env:"FEDROUND_PARTICIPANT_TRACE_RATIO"     envDefault:"1.0"`
	// Presence publishes an online status over MQTT with an offline will so
	// the coordinator drops this participant if it dies without deregistering.
	Presence     bool   `env:"FEDROUND_PARTICIPANT_PRESENCE_ENABLED" envDefault:"false"`
	EventsPrefix string `env:"FEDROUND_PARTICIPANT_EVENTS_PREFIX"    envDefault:"fedround"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("participant_id", cfg.ID))
	slog.SetDefault(logger)

	tp, err := tracing.NewProvider(ctx, svcName, cfg.OTELURL, cfg.ID, cfg.TraceRatio)
	if err != nil {
		logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

		return
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", slog.Any("error", err))
		}
	}()

	synthetic := participant.DefaultSyntheticConfig()
	synthetic.Features = cfg.Features
	synthetic.Samples = cfg.Samples
	synthetic.TaskSeed = cfg.TaskSeed
	synthetic.DataSeed = cfg.DataSeed

	client, err := participant.NewSyntheticClient(synthetic)
	if err != nil {
		logger.Error("failed to create synthetic client", slog.Any("error", err))

		return
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	topics := events.NewTopicBuilder(cfg.EventsPrefix)
	var pubsub mqtt.PubSub
	if cfg.Presence {
		pubsub, err = newPubSub(cfg, topics, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.Any("error", err))

			return
		}
		defer func() {
			if err := pubsub.Disconnect(context.Background()); err != nil {
				logger.Warn("failed to disconnect from mqtt broker", slog.Any("error", err))
			}
		}()
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, participant.MakeHandler(client, logger, cfg.ID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	fedSDK := sdk.NewSDK(sdk.Config{CoordinatorURL: cfg.CoordinatorURL})
	g.Go(func() error {
		if err := register(ctx, fedSDK, sdk.Participant{ID: cfg.ID, Name: cfg.Name, URL: cfg.AdvertiseURL}, cfg.RegisterRetry, logger); err != nil {
			return err
		}
		if pubsub == nil || ctx.Err() != nil {
			return nil
		}
		if err := events.Announce(ctx, pubsub, topics, cfg.ID); err != nil {
			logger.Warn("failed to announce participant status", slog.Any("error", err))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	if err := fedSDK.RemoveParticipant(cfg.ID); err != nil {
		logger.Warn("failed to deregister from coordinator", slog.Any("error", err))
	}
}

func newPubSub(cfg envConfig, topics *events.TopicBuilder, logger *slog.Logger) (mqtt.PubSub, error) {
	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		return nil, err
	}
	if mqttCfg.ClientID == "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-%s", svcName, cfg.ID)
	}
	mqttCfg.WillTopic = topics.ParticipantStatusTopic(cfg.ID)

	return mqtt.NewPubSub(mqttCfg, logger)
}

// register keeps trying until the coordinator accepts the participant or ctx
// is done.
func register(ctx context.Context, fedSDK sdk.SDK, p sdk.Participant, retry time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(retry)
	defer ticker.Stop()

	for {
		registered, err := fedSDK.RegisterParticipant(p)
		switch {
		case errors.Is(err, sdk.ErrConflict):
			logger.Info("already registered with coordinator")

			return nil
		case err == nil:
			logger.Info("registered with coordinator", slog.String("name", registered.Name), slog.String("url", registered.URL))

			return nil
		}
		logger.Warn("failed to register with coordinator", slog.Any("error", err))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
