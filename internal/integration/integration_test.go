package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"brainy-quiz-service/internal/app"
	"brainy-quiz-service/internal/domain"
	pgstore "brainy-quiz-service/internal/infra/postgres"
	pgmigrations "brainy-quiz-service/internal/infra/postgres/migrations"
	infraredis "brainy-quiz-service/internal/infra/redis"
	"brainy-quiz-service/internal/seed"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateDB(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	data := seed.Sample()
	store := pgstore.NewStore(db, pgstore.NewQuestionLoader(pool), data)
	if err := store.LoadInitialDataIfNeeded(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Second call must be a no-op.
	if err := store.LoadInitialDataIfNeeded(ctx); err != nil {
		t.Fatalf("seed again: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cached := infraredis.NewQuestionCache(redisClient, store, 5*time.Minute)

	var presented []domain.StageResult
	presenter := app.PresenterFunc(func(r domain.StageResult) { presented = append(presented, r) })
	engine := app.NewSessionEngine(cached, presenter, "u1", domain.ModeMultipleChoice, domain.CategoryGeneral, "general_stage_1")
	defer engine.Stop()

	engine.Start(ctx)
	state := engine.State()
	if state.Phase != app.PhaseInProgress {
		t.Fatalf("expected session in progress, got %s (%s)", state.Phase, state.ErrorMessage)
	}

	// Answer both seeded questions correctly.
	for state.Phase == app.PhaseInProgress {
		q, ok := state.CurrentQuestion()
		if !ok {
			t.Fatalf("expected active question, state %+v", state)
		}
		for i, option := range q.Options {
			if option == q.CorrectAnswer {
				engine.SelectOption(i)
			}
		}
		engine.SubmitAnswer(ctx)
		state = engine.State()
	}
	if state.Phase != app.PhaseCompleted || state.Score != 2 {
		t.Fatalf("expected completed with score 2, got %+v", state)
	}
	if len(presented) != 1 || presented[0].Stars != 3 {
		t.Fatalf("expected a presented 3-star result, got %+v", presented)
	}

	results, err := cached.FetchStageResults(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch results: %v", err)
	}
	if len(results) != 1 || results[0].Score != 2 || !results[0].IsCleared {
		t.Fatalf("expected one cleared persisted result, got %+v", results)
	}

	stats, err := cached.GetCategoryStageStats(ctx, "u1", domain.CategoryGeneral)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CompletedStages != 1 || stats.TotalStars != 3 || stats.UnlockedStage != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateDB(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
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
