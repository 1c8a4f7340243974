// NeuroBot Client - EEG visualisation and emotion-aware chat
//
// This is the main entry point for the NeuroBot client. The client:
//   - Keeps a persistent channel to the NeuroBot backend, reconnecting with
//     linear backoff
//   - Maintains a rolling window of EEG samples and renders it as a chart
//   - Shows the emotion the backend infers and relays chat in both directions
//
// Session events are optionally mirrored to MQTT, InfluxDB, SQLite and a
// local HTTP/WebSocket API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	_ "github.com/nerrad567/neurobot-client/migrations"

	"github.com/nerrad567/neurobot-client/internal/api"
	"github.com/nerrad567/neurobot-client/internal/chart"
	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/connection"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/config"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/database"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/influxdb"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/logging"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/mqtt"
	"github.com/nerrad567/neurobot-client/internal/session"
	"github.com/nerrad567/neurobot-client/internal/sink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnvVar overrides the default configuration path.
const configEnvVar = "NEUROBOT_CONFIG"

// Channel frame limits.
const (
	channelReadLimit = 1 << 20
	channelWriteWait = 10 * time.Second
)

// remoteChatTimeout bounds a chat submission arriving over MQTT.
const remoteChatTimeout = 5 * time.Second

// options holds the command-line inputs to run.
type options struct {
	configPath string
	origin     string
	stdin      io.Reader
	stdout     io.Writer
}

func main() {
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the neurobot command tree.
func newRootCmd() *cobra.Command {
	opts := options{stdin: os.Stdin}

	root := &cobra.Command{
		Use:           "neurobot",
		Short:         "NeuroBot EEG client",
		Long:          "Connects to a NeuroBot backend, charts the EEG stream, shows the inferred emotion and relays chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.stdout = cmd.OutOrStdout()
			return run(cmd.Context(), opts)
		},
	}
	root.Flags().StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (default "+defaultConfigPath+", or $"+configEnvVar+")")
	root.Flags().StringVar(&opts.origin, "origin", "",
		"backend origin, overriding backend.origin (e.g. https://neurobot.example.com)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "neurobot %s (commit %s, built %s)\n", version, commit, date)
		},
	})

	return root
}

// run is the actual application logic, separated from main for testability.
// It blocks until ctx is cancelled and returns nil on clean shutdown.
func run(ctx context.Context, opts options) error { //nolint:gocognit,gocyclo // Linear startup sequence
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting NeuroBot client",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath, allowMissing := resolveConfigPath(opts.configPath)
	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.origin != "" {
		cfg.Backend.Origin = opts.origin
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	endpoint, err := connection.Endpoint(cfg.Backend.Origin, cfg.Backend.Path)
	if err != nil {
		return fmt.Errorf("resolving backend endpoint: %w", err)
	}

	sessionID := uuid.NewString()
	components := make(map[string]api.HealthChecker)
	var sinks []sink.Sink

	// Open transcript database (optional)
	var (
		db    *database.DB
		store chat.Store
	)
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		store = chat.NewSQLiteStore(db.DB)
		sinks = append(sinks, sink.NewStore(store))
		components["database"] = db
	} else {
		log.Info("database disabled, transcript is not persisted")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"prefix", mqttClient.Topics().Prefix(),
		)

		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		sinks = append(sinks, sink.NewMQTT(mqttClient, mqttClient.Topics()))
		components["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, sessionID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
			"session", sessionID,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		sinks = append(sinks, sink.NewInflux(influxClient))
		components["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	renderer := chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height)

	// The hub must exist before the session so it can receive events.
	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log)
		sinks = append(sinks, hub)
	}

	if cfg.Chat.Console {
		sinks = append(sinks, sink.NewConsole(opts.stdout))
	}

	sess, err := session.New(session.Options{
		Endpoint: endpoint,
		Dialer: connection.WebSocketDialer{
			HandshakeTimeout: cfg.GetHandshakeTimeout(),
			ReadLimit:        channelReadLimit,
			WriteWait:        channelWriteWait,
		},
		Scheduler: connection.TimerScheduler{},
		Policy: connection.LinearBackoff{
			Base:        cfg.GetBaseDelay(),
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		Capacity: cfg.Window.Capacity,
		Prefill:  cfg.Window.Prefill,
		History:  cfg.Chat.History,
		Renderer: renderer,
		Store:    store,
		Sinks:    sinks,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	restored, err := sess.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restoring transcript: %w", err)
	}
	if restored > 0 {
		log.Info("transcript restored", "entries", restored)
	}

	// Accept chat input published to MQTT
	if mqttClient != nil && cfg.MQTT.AcceptChat {
		topic := mqttClient.Topics().ChatSubmit()
		if subErr := mqttClient.Subscribe(topic, mqttClient.QoS(), remoteChatHandler(ctx, sess)); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
		log.Info("accepting chat over MQTT", "topic", topic)
	}

	// Start local API (optional)
	if cfg.API.Enabled {
		go hub.Run(ctx)

		var pool *sql.DB
		if db != nil {
			pool = db.DB
		}
		server, apiErr := api.New(api.Deps{
			Config:      cfg.API,
			WS:          cfg.WebSocket,
			Logger:      log,
			Session:     sess,
			Chart:       renderer,
			Components:  components,
			DB:          pool,
			ExternalHub: hub,
			Version:     version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "addr", server.Addr())
	} else {
		log.Info("API disabled")
	}

	// Read chat input from the terminal
	if cfg.Chat.Console && opts.stdin != nil {
		go readConsole(ctx, opts.stdin, sess, log)
	}

	// Verify integrations are healthy
	if healthErr := healthCheck(ctx, components); healthErr != nil {
		log.Warn("initial health check failed", "error", healthErr)
	}

	log.Info("NeuroBot client started", "endpoint", endpoint)

	if err := sess.Run(ctx); err != nil {
		return fmt.Errorf("running session: %w", err)
	}

	log.Info("shutdown signal received, stopping...")
	return nil
}

// resolveConfigPath picks the configuration file. Only the built-in default
// is allowed to be missing.
func resolveConfigPath(flagPath string) (path string, allowMissing bool) {
	if flagPath != "" {
		return flagPath, false
	}
	if envPath := os.Getenv(configEnvVar); envPath != "" {
		return envPath, false
	}
	return defaultConfigPath, true
}

// remoteChatHandler submits MQTT chat payloads to the session.
func remoteChatHandler(ctx context.Context, sess *session.Session) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		submitCtx, cancel := context.WithTimeout(ctx, remoteChatTimeout)
		defer cancel()

		if _, err := sess.SubmitChatPayload(submitCtx, payload); err != nil {
			return fmt.Errorf("submitting remote chat: %w", err)
		}
		return nil
	}
}

// healthCheck runs every registered integration health check once.
func healthCheck(ctx context.Context, components map[string]api.HealthChecker) error {
	for name, c := range components {
		if c == nil {
			continue
		}
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check: %w", name, err)
		}
	}
	return nil
}
