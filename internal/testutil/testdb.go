package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zhejian/shortcodes/internal/infra"
)

// TestDB holds test database resources
type TestDB struct {
	Pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// SetupTestDB creates a new test database with migrations applied
func SetupTestDB(ctx context.Context) (*TestDB, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, abandon(ctx, container, err)
	}

	if err := infra.RunMigrations(connString, MigrationsPath()); err != nil {
		return nil, abandon(ctx, container, err)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, abandon(ctx, container, err)
	}

	return &TestDB{Pool: pool, container: container}, nil
}

// ConnectionString returns a DSN for opening extra connections to the test database.
func (t *TestDB) ConnectionString(ctx context.Context) (string, error) {
	return t.container.ConnectionString(ctx, "sslmode=disable")
}

// Cleanup removes every stored short link
func (t *TestDB) Cleanup(ctx context.Context) {
	if t == nil || t.Pool == nil {
		return
	}
	_, _ = t.Pool.Exec(ctx, "TRUNCATE TABLE shortcodes")
}

// Teardown closes connections and terminates container
func (t *TestDB) Teardown(ctx context.Context) {
	if t.Pool != nil {
		t.Pool.Close()
	}
	if t.container != nil {
		terminate(ctx, t.container)
	}
}

// MigrationsPath returns the absolute path of the repository schema migrations.
func MigrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "../../migrations/schema")
}
