package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
	pgloader "proctor-quiz-service/internal/infra/postgres"
	pgmigrations "proctor-quiz-service/internal/infra/postgres/migrations"
	infraredis "proctor-quiz-service/internal/infra/redis"
	"proctor-quiz-service/internal/questions"
)

func TestQuizAgainstPostgresAndRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewBankLoader(pool)
	if _, err := loader.LoadBank(ctx, "missing"); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	banks := infraredis.NewBankRepository(redisClient, loader, 5*time.Minute)
	attempts := infraredis.NewAttemptStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(attempts, banks, app.Settings{BankID: questions.DefaultBankID}, zerolog.Nop())

	attempt, err := service.Login(ctx, app.LoginRequest{Name: "Alice"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := service.VerifyPasskey(ctx, attempt.ID, app.PasskeyRequest{Passkey: attempt.Passkey}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := service.CapturePhoto(ctx, attempt.ID, app.PhotoRequest{Photo: "photo"}); err != nil {
		t.Fatalf("photo: %v", err)
	}

	clk := clock.NewManual(time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC))
	session, err := service.StartQuiz(ctx, attempt.ID, app.SessionEnv{Clock: clk})
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	defer session.Close()

	// answer key of the seeded bank: A C C B A B C C A D
	for i, opt := range []domain.Option{domain.OptionA, domain.OptionC, domain.OptionC, domain.OptionB, domain.OptionA, domain.OptionB, domain.OptionC} {
		session.GoTo(i)
		session.SelectAnswer(opt)
	}
	if !session.Submit() {
		t.Fatalf("submit refused")
	}

	report, err := service.Results(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if report.Score != 7 || report.Percentage != 70 || !report.Passed {
		t.Fatalf("expected 7/10 passing, got %+v", report)
	}

	if n, err := redisClient.Exists(ctx, "quiz:bank:"+questions.DefaultBankID).Result(); err != nil || n != 1 {
		t.Fatalf("expected bank cached in redis, got %d %v", n, err)
	}
	if n, err := attempts.LiveAttempts(ctx); err != nil || n != 1 {
		t.Fatalf("expected one live attempt, got %d %v", n, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM question_banks WHERE id = ?`, questions.DefaultBankID).Scan(&count); err != nil {
		t.Fatalf("count banks: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected seeded bank, got %d rows", count)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
