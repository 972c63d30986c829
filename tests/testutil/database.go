package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/credvault/internal/database"
	"github.com/dimitrije/credvault/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDBName = "credvault_test"

// vaultTables are truncated together so the credential foreign key needs no CASCADE.
var vaultTables = []string{"vault_usage_logs", "vault_credentials", "vault_config"}

type TestDB struct {
	DB        *database.DB
	Container testcontainers.Container
}

// SetupTestDB starts a migrated Postgres container. Tests are skipped when no
// container runtime is reachable.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       testDBName,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := containerDSN(ctx, container)
	if err != nil {
		t.Fatalf("failed to resolve database address: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	db := &database.DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &TestDB{DB: db, Container: container}
}

func containerDSN(ctx context.Context, c testcontainers.Container) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgres://test:test@%s:%s/%s?sslmode=disable", host, port.Port(), testDBName), nil
}

func (tdb *TestDB) Store() *store.PostgresStore {
	return store.NewPostgresStore(tdb.DB)
}

// CleanTables empties every vault table.
func (tdb *TestDB) CleanTables(t *testing.T) {
	t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(vaultTables, ", ")
	if _, err := tdb.DB.Pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to truncate vault tables: %v", err)
	}
}

// VaultExists reports whether userID has a vault_config row.
func (tdb *TestDB) VaultExists(t *testing.T, userID uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := tdb.DB.Pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM vault_config WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		t.Fatalf("failed to query vault_config: %v", err)
	}
	return exists
}
