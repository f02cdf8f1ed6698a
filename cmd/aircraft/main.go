package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/ubivismedia/aircraft/internal/cache"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/dispatcher"
	"github.com/ubivismedia/aircraft/internal/handlers"
	"github.com/ubivismedia/aircraft/internal/hostsim"
	"github.com/ubivismedia/aircraft/internal/influx"
	"github.com/ubivismedia/aircraft/internal/logging"
	intOtel "github.com/ubivismedia/aircraft/internal/otel"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/internal/stream"
	"github.com/ubivismedia/aircraft/pkg/streaming"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "aircraft"
)

// file paths
var (
	// ConfigDir holds aircraft.cfg.json. It is the first argument, or the
	// working directory.
	ConfigDir string

	LogFilePath string
	LogFile     *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLogger feeds the dispatcher, the database manager and the InfluxDB manager
	ZLogger zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// InfluxManager exports build metrics; nil when disabled
	InfluxManager *influx.Manager

	// StreamPublisher sends build events to a viewer; nil when disabled
	StreamPublisher *stream.Publisher

	SessionStartTime time.Time = time.Now()

	// Pending material selections, one per player
	Pending *cache.PendingSelections = cache.NewPendingSelections()

	// Services
	hostSim         *hostsim.Host
	handlerService  *handlers.Service
	eventDispatcher *dispatcher.Dispatcher
	gelfCloser      io.Closer

	storageBackend storage.Backend
)

func setupLogging() error {
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, viper.GetString("logLevel"), nil)
	Logger = SlogManager.Logger()

	var err error
	LogFile, LogFilePath, err = logging.OpenSessionLog(viper.GetString("logsDir"), ExtensionName, SessionStartTime)
	if err != nil {
		return err
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	OTelProvider, err = intOtel.New(otelCfg, LogFile)
	if err != nil {
		Logger.Error("Failed to initialize OTel provider", "error", err)
		OTelProvider, _ = intOtel.New(config.OTelConfig{}, nil)
	} else if otelCfg.Enabled {
		Logger.Info("OTel provider initialized", "file", LogFilePath, "endpoint", otelCfg.Endpoint)
	}

	var extra []slog.Handler
	if gl := config.GetGraylogConfig(); gl.Enabled {
		h, closer, err := logging.NewGELFHandler(gl.Address, ExtensionName, viper.GetString("logLevel"))
		if err != nil {
			Logger.Error("Failed to set up Graylog output", "error", err)
		} else {
			extra = append(extra, h)
			gelfCloser = closer
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Context = func() []slog.Attr {
		return []slog.Attr{
			slog.String("storage", config.GetString("storage.type")),
			slog.Int("pendingSelections", Pending.Len()),
		}
	}
	SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentExtensionVersion, "built", BuildDate)

	ZLogger = newZeroLogger(LogFile, viper.GetString("logLevel"))
	return nil
}

// newZeroLogger writes console-formatted records without colors to w.
func newZeroLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).Level(lvl).With().Timestamp().Logger()
}

func initMetrics(ctx context.Context) {
	InfluxManager = influx.NewManager(ZLogger, config.GetInfluxConfig(),
		filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s_%s.influx.gz", ExtensionName, SessionStartTime.Format("20060102_150405"))))
	if err := InfluxManager.Connect(ctx); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			Logger.Error("Failed to set up InfluxDB", "error", err)
		}
		InfluxManager = nil
	} else {
		Logger.Info("InfluxDB metrics enabled", "live", InfluxManager.IsValid)
	}

	if sc := config.GetStreamConfig(); sc.Enabled {
		StreamPublisher = stream.New(sc, streaming.HelloPayload{
			Extension: ExtensionName,
			Version:   CurrentExtensionVersion,
			Started:   SessionStartTime.UTC(),
		}, Logger)
		if err := StreamPublisher.Connect(); err != nil {
			Logger.Error("Failed to connect build stream", "url", sc.URL, "error", err)
			StreamPublisher.Close()
			StreamPublisher = nil
		} else {
			Logger.Info("Build stream connected", "url", sc.URL)
		}
	}
}

// metricsSinks returns the enabled measurement sinks, or nil.
func metricsSinks() handlers.Metrics {
	var group handlers.MetricsGroup
	if InfluxManager != nil {
		group = append(group, InfluxManager)
	}
	if StreamPublisher != nil {
		group = append(group, StreamPublisher)
	}
	if len(group) == 0 {
		return nil
	}
	return group
}

// registerPendingGauge reports the number of open selections through OTel.
func registerPendingGauge() {
	meter := OTelProvider.Meter("github.com/ubivismedia/aircraft/cmd/aircraft")
	pendingGauge, err := meter.Int64ObservableGauge(
		"aircraft.selections.pending",
		metric.WithDescription("Players with an open material selection"),
	)
	if err == nil {
		_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(pendingGauge, int64(Pending.Len()))
			return nil
		}, pendingGauge)
	}
	if err != nil {
		Logger.Warn("Failed to register pending selection gauge", "error", err)
	}
}

func initServices() error {
	var err error
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(ZLogger.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	hostSim = hostsim.New()
	if err := hostSim.RegisterMaterials(viper.GetStringSlice("host.materials")...); err != nil {
		return fmt.Errorf("failed to register host materials: %w", err)
	}

	deps := handlers.Dependencies{
		Host:       hostSim,
		Store:      storageBackend,
		Pending:    Pending,
		Hangar:     config.GetHangarConfig(),
		Metrics:    metricsSinks(),
		LogManager: SlogManager,
	}
	handlerService = handlers.NewService(deps)
	handlerService.RegisterHandlers(eventDispatcher)
	Logger.Info("Handlers registered", "commands", eventDispatcher.Commands())
	return nil
}

func shutdown() {
	if storageBackend != nil {
		if err := storageBackend.Close(); err != nil {
			Logger.Error("Failed to close storage backend", "error", err)
		}
	}
	if InfluxManager != nil {
		if err := InfluxManager.Close(); err != nil {
			Logger.Error("Failed to close InfluxDB manager", "error", err)
		}
	}
	if StreamPublisher != nil {
		if err := StreamPublisher.Close(); err != nil {
			Logger.Error("Failed to close build stream", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Logger.Error("Failed to shut down OTel provider", "error", err)
	}
	if gelfCloser != nil {
		gelfCloser.Close()
	}
	Logger.Info("Shut down")
	if LogFile != nil {
		LogFile.Close()
	}
}

func main() {
	ConfigDir = "."
	if len(os.Args) > 1 {
		ConfigDir = os.Args[1]
	}

	cfgErr := config.Load(ConfigDir)
	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfgErr != nil {
		Logger.Warn("Using default configuration", "error", cfgErr)
	}

	Logger.Info("Starting up...")
	if err := initStorage(); err != nil {
		shutdown()
		os.Exit(1)
	}
	initMetrics(context.Background())
	registerPendingGauge()
	if err := initServices(); err != nil {
		Logger.Error("Failed to start services", "error", err)
		shutdown()
		os.Exit(1)
	}

	c := &console{
		host:       hostSim,
		service:    handlerService,
		dispatcher: eventDispatcher,
		spawn:      config.GetHangarConfig().Spawn,
		out:        os.Stdout,
	}
	fmt.Fprintf(os.Stdout, "%s %s ready, storage=%s. Type \"help\".\n", ExtensionName, CurrentExtensionVersion, config.GetString("storage.type"))
	if err := c.Run(os.Stdin); err != nil {
		Logger.Error("Console stopped", "error", err)
	}
	shutdown()
}
