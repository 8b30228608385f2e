package cli

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/config"
	"proctor-quiz-service/internal/infra/memory"
	pgloader "proctor-quiz-service/internal/infra/postgres"
	infraredis "proctor-quiz-service/internal/infra/redis"
	"proctor-quiz-service/internal/questions"
)

// logSettings returns the configured level and format; LOG_LEVEL and
// LOG_FORMAT take precedence over the file.
func logSettings(cfg config.Config) (string, string) {
	level := config.StringOr(os.Getenv("LOG_LEVEL"), cfg.Log.Level)
	format := config.StringOr(os.Getenv("LOG_FORMAT"), cfg.Log.Format)
	return level, format
}

func settingsFrom(cfg config.Config) app.Settings {
	return app.Settings{
		BankID:       config.StringOr(cfg.Bank.Default, questions.DefaultBankID),
		Duration:     config.TTLDuration(cfg.Quiz.Duration, app.DefaultDuration),
		TickInterval: config.TTLDuration(cfg.Quiz.TickInterval, app.DefaultTickInterval),
		WarningDelay: config.TTLDuration(cfg.Quiz.WarningDelay, app.DefaultWarningDelay),
		TimeFormat:   config.StringOr(cfg.Quiz.TimeFormat, app.DefaultTimeFormat),
		PassMark:     cfg.Quiz.PassMark,
	}
}

// buildService wires the quiz service onto whichever backends are configured:
// Postgres for banks, Redis for the bank cache and attempt markers, memory otherwise.
func buildService(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 45*time.Minute)

	var loader memory.BankLoader = memory.NewStaticBankLoader(questions.Catalog())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = infraredis.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = infraredis.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	log.Info().
		Bool("postgres", cfg.Postgres.URL != "").
		Bool("redis", redisClient != nil).
		Msg("backends configured")
	return app.NewQuizService(attempts, banks, settingsFrom(cfg), log), cleanup, nil
}
