package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestPostgresIntegration(t *testing.T) {
	url := os.Getenv("EBR_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("EBR_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM kv_entries WHERE key LIKE 'sess:%' OR key IN ('access_token', 'user')`)
	require.NoError(t, err)

	s := NewPostgres(pool)
	exerciseStore(t, s)
	exercisePrefixDelete(t, s)
}

func TestRedisIntegration(t *testing.T) {
	url := os.Getenv("EBR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("EBR_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Del(ctx, "access_token", "user").Err())

	s := NewRedis(client, time.Minute)
	exerciseStore(t, s)
	exercisePrefixDelete(t, s)

	ttl, err := client.TTL(ctx, "user").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
