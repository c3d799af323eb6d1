package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	api "github.com/rpupo63/reel-marketplace-backend/api"
	"github.com/rpupo63/reel-marketplace-backend/config"
	"github.com/rpupo63/reel-marketplace-backend/database"
	"github.com/rpupo63/reel-marketplace-backend/lifecycle"
	"github.com/rpupo63/reel-marketplace-backend/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	ctx := context.Background()
	cfg := config.New()
	if err := config.LoadSSM(ctx, cfg); err != nil {
		fmt.Printf("Error loading parameters from SSM: %v\n", err)
		os.Exit(1)
	}
	logger := config.InitLogger(cfg)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("error opening store")
	}

	policy, err := lifecycle.ParseVersionPolicy(config.GetString(cfg, "VERSION_REVIEW_POLICY", string(lifecycle.ReviewEveryVersion)))
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid VERSION_REVIEW_POLICY")
	}

	opts := []lifecycle.Option{
		lifecycle.WithVersionPolicy(policy),
		lifecycle.WithLogger(logger.With().Str("component", "lifecycle").Logger()),
	}
	if notifier, err := services.NewEmailNotifier(cfg); err != nil {
		logger.Warn().Err(err).Msg("email notifications disabled")
	} else {
		opts = append(opts, lifecycle.WithNotifier(notifier))
	}
	if briefs, err := services.NewBriefWriter(cfg); err != nil {
		logger.Warn().Err(err).Msg("AI briefs disabled")
	} else {
		opts = append(opts, lifecycle.WithBriefWriter(briefs))
	}
	service := lifecycle.NewService(store, opts...)

	var serverOpts []api.RouterOption
	if objectStore, err := services.NewObjectStore(ctx, cfg); err != nil {
		logger.Warn().Err(err).Msg("file uploads disabled")
	} else {
		serverOpts = append(serverOpts, api.WithObjectStore(objectStore))
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(service, cfg, serverOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	logger.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(config.GetDuration(cfg, "SHUTDOWN_TIMEOUT_SECONDS", 30*time.Second))
}

// openStore picks the lifecycle store based on DB_TYPE
func openStore(ctx context.Context, cfg map[string]string, logger zerolog.Logger) (lifecycle.Store, error) {
	dbType := config.GetString(cfg, "DB_TYPE", "supa")
	logger.Info().Str("dbType", dbType).Msg("opening store")

	var opts database.ConnOptions
	switch dbType {
	case "supa":
		opts.DSN = supabaseDSN(cfg, config.GetString(cfg, "SUPABASE_DB_HOST", ""))
		if replica := config.GetString(cfg, "SUPABASE_DB_REPLICA_HOST", ""); replica != "" {
			opts.ReplicaDSN = supabaseDSN(cfg, replica)
		}
	case "postgres":
		opts.DSN = config.GetString(cfg, "DATABASE_URL", "")
		opts.ReplicaDSN = config.GetString(cfg, "DATABASE_REPLICA_URL", "")
		if opts.DSN == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
	case "memory":
		logger.Warn().Msg("using the in-memory store; data is lost on restart")
		return lifecycle.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
	opts.SlowThreshold = config.GetDuration(cfg, "DB_SLOW_QUERY_SECONDS", 10*time.Second)
	opts.Logger = logger

	db, err := database.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	if config.GetBool(cfg, "RUN_MIGRATIONS", true) {
		if err := database.Migrate(ctx, db, logger); err != nil {
			return nil, err
		}
	}
	return database.New(db), nil
}

func supabaseDSN(cfg map[string]string, host string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host,
		config.GetString(cfg, "SUPABASE_DB_USER", ""),
		config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
		config.GetString(cfg, "SUPABASE_DB_NAME", "postgres"),
		config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		strings.ToLower(config.GetString(cfg, "SUPABASE_DB_SSLMODE", "require")),
	)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
