// Package dbtest starts a throwaway postgres container for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"github.com/2beens/portfolio/internal/db"
)

const testDBName = "portfolio_test"

// NewPool returns a migrated pool. POSTGRES_TEST_URL points it at an existing
// database; otherwise a postgres container is started and removed on cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("POSTGRES_TEST_URL")
	if dsn == "" {
		dsn = startContainer(t)
	}

	var pool *pgxpool.Pool
	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err)
	dockerPool.MaxWait = time.Minute
	require.NoError(t, dockerPool.Retry(func() error {
		p, err := db.NewDBPool(ctx, db.NewDBPoolParams{DatabaseURL: dsn})
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}))
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

func startContainer(t *testing.T) string {
	t.Helper()

	dockerPool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create dockertest pool")
	require.NoError(t, dockerPool.Client.Ping(), "could not ping docker")

	resource, err := dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=" + testDBName,
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "run postgres container")

	t.Cleanup(func() {
		if err := dockerPool.Purge(resource); err != nil {
			t.Logf("postgres teardown: %s", err)
		}
	})

	return fmt.Sprintf(
		"postgres://postgres@localhost:%s/%s?sslmode=disable",
		resource.GetPort("5432/tcp"), testDBName,
	)
}
