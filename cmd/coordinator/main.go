package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fedround"
	"github.com/absmach/fedround/coordinator"
	"github.com/absmach/fedround/coordinator/api"
	"github.com/absmach/fedround/coordinator/middleware"
	"github.com/absmach/fedround/pkg/accelerator"
	"github.com/absmach/fedround/pkg/cron"
	"github.com/absmach/fedround/pkg/events"
	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/mqtt"
	"github.com/absmach/fedround/pkg/participant"
	"github.com/absmach/fedround/pkg/prometheus"
	"github.com/absmach/fedround/pkg/server"
	httpserver "github.com/absmach/fedround/pkg/server/http"
	"github.com/absmach/fedround/pkg/storage"
	"github.com/absmach/fedround/pkg/strategy"
	"github.com/absmach/fedround/pkg/tracing"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "coordinator"
	defHTTPPort   = "8080"
	envPrefixHTTP = "FEDROUND_HTTP_"
	envPrefixMQTT = "FEDROUND_MQTT_"
	pathEnv       = ".env"

	modeServer     = "server"
	modeSimulation = "simulation"
)

type envConfig struct {
	LogLevel      string        `env:"FEDROUND_LOG_LEVEL"       envDefault:"info"`
	InstanceID    string        `env:"FEDROUND_INSTANCE_ID"`
	Mode          string        `env:"FEDROUND_MODE"            envDefault:"server"`
	ConfigFile    string        `env:"FEDROUND_CONFIG_FILE"`
	ServerPort    string        `env:"SERVER_PORT"`
	Autostart     bool          `env:"FEDROUND_AUTOSTART"       envDefault:"false"`
	RunSchedule   string        `env:"FEDROUND_RUN_SCHEDULE"`
	RunTimezone   string        `env:"FEDROUND_RUN_TIMEZONE"    envDefault:"UTC"`
	Accelerator   string        `env:"FEDROUND_ACCELERATOR"     envDefault:"host"`
	EventsEnabled bool          `env:"FEDROUND_EVENTS_ENABLED"  envDefault:"false"`
	EventsPrefix  string        `env:"FEDROUND_EVENTS_PREFIX"   envDefault:"fedround"`
	ProxyTimeout  time.Duration `env:"FEDROUND_PROXY_TIMEOUT"   envDefault:"10m"`
	Storage       storage.Config
	OTELURL       url.URL `env:"FEDROUND_OTEL_URL"`
	TraceRatio    float64 `env:"FEDROUND_TRACE_RATIO" envDefault:"1.0"`
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

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	exitCode := 1
	defer func() {
		cancel()
		os.Exit(exitCode)
	}()

	// Storage settings come from the environment unless the config file
	// sets them.
	fileCfg := fedround.DefaultConfig()
	fileCfg.Storage = cfg.Storage
	if cfg.ConfigFile != "" {
		loaded, err := fedround.LoadConfigOver(fileCfg, cfg.ConfigFile)
		if err != nil {
			logger.Error("failed to load config file", slog.String("path", cfg.ConfigFile), slog.Any("error", err))

			return
		}
		fileCfg = loaded
	}
	if err := fileCfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))

		return
	}

	tp, err := tracing.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
	if err != nil {
		logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

		return
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", slog.Any("error", err))
		}
	}()
	tracer := tp.Tracer(svcName)

	store, err := storage.NewCheckpointStore(fileCfg.Storage)
	if err != nil {
		logger.Error("failed to open checkpoint store", slog.String("type", fileCfg.Storage.Type), slog.Any("error", err))

		return
	}
	defer store.Close()

	acc, err := newAccelerator(cfg.Accelerator)
	if err != nil {
		logger.Error("failed to initialize accelerator", slog.Any("error", err))

		return
	}

	topics := events.NewTopicBuilder(cfg.EventsPrefix)
	emitter := events.NewNoop()
	var pubsub mqtt.PubSub
	if cfg.EventsEnabled {
		pubsub, err = newPubSub(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := pubsub.Disconnect(context.Background()); err != nil {
				logger.Warn("failed to disconnect from mqtt broker", slog.Any("error", err))
			}
		}()
		emitter = events.NewMQTTEmitter(pubsub, topics)
	}

	strategyCfg, err := fileCfg.StrategyConfig()
	if err != nil {
		logger.Error("invalid strategy configuration", slog.Any("error", err))

		return
	}

	rm := prometheus.MakeRoundMetrics(svcName)
	pool := participant.NewPool()
	loop, err := coordinator.NewLoop(
		coordinator.LoopConfig{
			Sessions:            fileCfg.Session.Sessions,
			Rounds:              fileCfg.Session.Rounds,
			Pause:               fileCfg.Session.PauseDuration(),
			WaitForParticipants: fileCfg.Session.WaitDuration(),
			MinParticipants:     strategyCfg.MinAvailableClients,
		},
		pool,
		func() (fl.GlobalModelState, error) {
			return fileCfg.InitialState(), nil
		},
		func(initial fl.GlobalModelState) (*strategy.Strategy, error) {
			return strategy.New(strategyCfg, initial, fileCfg.NewSampler(), logger)
		},
		logger,
		coordinator.WithAccelerator(acc),
		coordinator.WithEmitter(emitter),
		coordinator.WithCheckpoints(store),
		coordinator.WithRoundMetrics(coordinator.RoundMetrics{
			Rounds:       rm.Rounds,
			Duration:     rm.Duration,
			Contributors: rm.Contributors,
			Loss:         rm.Loss,
		}),
	)
	if err != nil {
		logger.Error("failed to create coordinator loop", slog.Any("error", err))

		return
	}

	proxies := newProxyFactory(coordinator.HTTPProxies(cfg.ProxyTimeout), fileCfg.Simulation.Participant)

	svc := coordinator.NewService(
		storage.NewInMemoryStorage(),
		storage.NewInMemoryStorage(),
		pool,
		proxies,
		loop,
		store,
		logger,
	)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}
	if cfg.ServerPort != "" {
		httpServerConfig.Port = cfg.ServerPort
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	// Participants whose MQTT will reports them offline leave the pool.
	if pubsub != nil && cfg.Mode == modeServer {
		g.Go(func() error {
			return events.WatchParticipants(ctx, pubsub, topics, coordinator.DropOffline(svc, logger), logger)
		})
	}

	switch cfg.Mode {
	case modeSimulation:
		g.Go(func() error {
			defer cancel()

			return simulate(ctx, svc, fileCfg.Simulation.Clients, logger)
		})
	case modeServer:
		if cfg.Autostart {
			g.Go(func() error {
				return autostart(ctx, svc, pool, strategyCfg.MinAvailableClients, logger)
			})
		}
		if cfg.RunSchedule != "" {
			schedule, err := cron.Parse(cfg.RunSchedule, cfg.RunTimezone)
			if err != nil {
				logger.Error("invalid run schedule", slog.String("schedule", cfg.RunSchedule), slog.Any("error", err))

				return
			}
			rs := coordinator.NewRunScheduler(svc, schedule, logger)
			g.Go(func() error {
				return rs.Start(ctx)
			})
		}
	default:
		logger.Error("unknown mode", slog.String("mode", cfg.Mode))

		return
	}

	err = g.Wait()
	if shutdownErr := svc.Shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("failed to stop running training", slog.Any("error", shutdownErr))
	}
	if err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))

		return
	}
	exitCode = 0
}

func newAccelerator(kind string) (accelerator.Accelerator, error) {
	switch kind {
	case "host":
		return accelerator.NewHost()
	case "none", "":
		return accelerator.NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown accelerator %q", kind)
	}
}

func newPubSub(ctx context.Context, cfg envConfig, logger *slog.Logger) (mqtt.PubSub, error) {
	topics := events.NewTopicBuilder(cfg.EventsPrefix)

	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		return nil, err
	}
	if mqttCfg.ClientID == "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-%s", svcName, cfg.InstanceID)
	}
	mqttCfg.WillTopic = topics.CoordinatorStatusTopic(cfg.InstanceID)

	pubsub, err := mqtt.NewPubSub(mqttCfg, logger)
	if err != nil {
		return nil, err
	}

	status := map[string]string{"status": "online", "client_id": mqttCfg.ClientID}
	if err := pubsub.Publish(ctx, mqttCfg.WillTopic, status); err != nil {
		logger.Warn("failed to publish coordinator status", slog.Any("error", err))
	}

	return pubsub, nil
}
