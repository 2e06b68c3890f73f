//go:build integration

package containers

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and opens a pgx connection
// pool against it. The container is terminated when the test finishes.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("coalesce_test"),
		tcpostgres.WithUsername("coalesce"),
		tcpostgres.WithPassword("coalesce"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{
		Container: container,
		URL:       url,
		DB:        db,
	}
}

// ApplyMigration executes a migration file against the container database.
func (p *PostgresContainer) ApplyMigration(t *testing.T, path string) {
	t.Helper()

	ddl, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read migration %s: %v", path, err)
	}
	if _, err := p.DB.Exec(string(ddl)); err != nil {
		t.Fatalf("failed to apply migration %s: %v", path, err)
	}
}

// TruncateContacts clears the contacts table between tests.
func (p *PostgresContainer) TruncateContacts(t *testing.T) {
	t.Helper()

	if _, err := p.DB.Exec("TRUNCATE contacts RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to truncate contacts: %v", err)
	}
}
