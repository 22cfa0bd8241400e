package main

import (
	"context"
	"fmt"
	"path"

	"DietPlanner/internal/chat"
	"DietPlanner/internal/config"
	"DietPlanner/internal/database"
	"DietPlanner/internal/diet"
	"DietPlanner/internal/foods"
	"DietPlanner/internal/history"
	"DietPlanner/internal/server"
	"DietPlanner/internal/telemetry"
	"DietPlanner/internal/textgen"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// buildApp wires every component from cfg. cleanup releases what was opened
// and is safe to call more than once.
func buildApp(ctx context.Context, cfg *config.Config, tracer trace.Tracer, metrics *telemetry.Metrics) (*server.Server, func(), error) {
	var closers []func()
	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	table, err := foods.LoadFile(cfg.Dataset.Path)
	if err != nil {
		return nil, cleanup, fmt.Errorf("loading dataset: %w", err)
	}
	log.Info().Str("path", cfg.Dataset.Path).Int("items", table.Len()).Msg("Food dataset loaded")

	gen, closeGen, err := newGenerator(ctx, cfg.TextGen)
	if err != nil {
		cleanup()
		return nil, cleanup, err
	}
	closers = append(closers, closeGen)

	gen = textgen.NewInstrumented(gen, metrics, cfg.TextGen.Provider)
	gen = textgen.NewTraced(gen, tracer, cfg.TextGen.Provider)
	gen = textgen.NewRateLimited(gen, rate.NewLimiter(rate.Limit(cfg.TextGen.RatePerSec), cfg.TextGen.Burst))

	daily, weekly, db, err := newHistoryStores(ctx, cfg.History)
	if err != nil {
		cleanup()
		return nil, cleanup, err
	}
	if db != nil {
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		})
	}
	daily = history.WithRecorder(daily, diet.KindDaily, metrics)
	weekly = history.WithRecorder(weekly, diet.KindWeekly, metrics)

	explainer := diet.NewExplainer(gen, cfg.TextGen.Model, cfg.TextGen.Temperature, metrics)
	planner := diet.NewPlanner(foods.NewSampler(table), explainer, metrics)

	chats, err := chat.NewRegistry(gen, chat.RegistryOpts{
		Scope:       chat.Scope(cfg.Chat.Scope),
		MaxSessions: cfg.Chat.MaxSessions,
		Model:       cfg.TextGen.Model,
		Temperature: cfg.TextGen.Temperature,
		Recorder:    metrics,
	})
	if err != nil {
		cleanup()
		return nil, cleanup, err
	}

	srv := server.New(server.Options{
		Port:            cfg.Server.Port,
		SessionSecret:   cfg.Server.SessionSecret,
		SecureCookies:   !cfg.IsDevelopment(),
		AllowedOrigins:  cfg.Server.AllowedOrigins(),
		HistoryBackend:  cfg.History.Backend,
		TextGenProvider: cfg.TextGen.Provider,
	}, server.Deps{
		Table:         table,
		Planner:       planner,
		DailyHistory:  daily,
		WeeklyHistory: weekly,
		Chats:         chats,
		DB:            db,
		Metrics:       metrics,
	})
	return srv, cleanup, nil
}

func newGenerator(ctx context.Context, cfg config.TextGenConfig) (textgen.Generator, func(), error) {
	noop := func() {}

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is not set, explanations will use the placeholder text")
		}
		return textgen.NewOpenAIClient(textgen.OpenAIOpts{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		}), noop, nil

	case "gemini":
		client, err := textgen.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, noop, fmt.Errorf("creating gemini client: %w", err)
		}
		return client, func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close gemini client")
			}
		}, nil

	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("loading AWS config: %w", err)
		}
		return textgen.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg)), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown text generation provider %q", cfg.Provider)
	}
}

// newHistoryStores returns the 1-day and 7-day stores. db is non-nil only
// for the SQL backends.
func newHistoryStores(ctx context.Context, cfg config.HistoryConfig) (daily, weekly history.Store, db database.Service, err error) {
	switch cfg.Backend {
	case "file":
		return history.NewFileStore(cfg.DailyPath), history.NewFileStore(cfg.WeeklyPath), nil, nil

	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return history.NewS3Store(client, cfg.S3Bucket, path.Join(cfg.S3Prefix, "previous_1day_plans.json")),
			history.NewS3Store(client, cfg.S3Bucket, path.Join(cfg.S3Prefix, "previous_7day_plans.json")),
			nil, nil

	case "sqlite", "postgres":
		dialect, dsn := database.SQLite, cfg.SQLitePath
		if cfg.Backend == "postgres" {
			dialect, dsn = database.Postgres, cfg.PostgresURL
		}

		db, err := database.New(ctx, dialect, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		d, err := history.NewSQLStore(ctx, db, diet.KindDaily)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		w, err := history.NewSQLStore(ctx, db, diet.KindWeekly)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return d, w, db, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
