//go:build integration_pg
// +build integration_pg

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cardanoidx/internal/platform/config"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns a password-less DSN,
// the password separately, and a stop func
func startPostgres(t *testing.T) (dsn, password string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "cexplorer",
			"POSTGRES_PASSWORD": "indexer-key",
			"POSTGRES_DB":       "cexplorer",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://cexplorer@%s:%s/cexplorer?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, "indexer-key", stop
}

func TestSQLAdapter_Integration_AccessKeyQueryAndSnapshot(t *testing.T) {
	dsn, key, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{
		AppName: "cardanoidx-store-it",
		PG: PGConfig{
			Enabled:   true,
			URL:       dsn,
			AccessKey: config.Secret(key),
			MaxConns:  3,
			LogSQL:    true,
		},
	}, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}

	var app string
	if err := s.PG.QueryRow(ctx, `select current_setting('application_name')`).Scan(&app); err != nil || app != "cardanoidx-store-it" {
		t.Fatalf("application_name = %q, %v", app, err)
	}

	if _, err := s.PG.Exec(ctx, `create table block (id bigserial primary key, block_no integer, hash bytea not null)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := s.PG.Exec(ctx, `insert into block (block_no, hash) values (1, '\x01'), (2, '\x02')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var n int64
	err = RunSnapshot(ctx, s.PG, func(ctx context.Context, q RowQuerier) error {
		return q.QueryRow(ctx, `select count(*) from block`).Scan(&n)
	})
	if err != nil || n != 2 {
		t.Fatalf("snapshot count = %d, %v", n, err)
	}

	// writes are refused inside the snapshot
	err = RunSnapshot(ctx, s.PG, func(ctx context.Context, q RowQuerier) error {
		_, err := q.Exec(ctx, `insert into block (block_no, hash) values (3, '\x03')`)
		return err
	})
	if err == nil {
		t.Fatalf("expected read-only transaction to reject insert")
	}
}

func TestSQLAdapter_Integration_ListenNotify(t *testing.T) {
	dsn, key, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{PG: PGConfig{Enabled: true, URL: dsn, AccessKey: config.Secret(key), MaxConns: 2}},
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	stream, err := s.Listener.Listen(ctx, "block_insert")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer func() { _ = stream.Close(context.Background()) }()

	if _, err := s.PG.Exec(ctx, `select pg_notify('block_insert', '{"type":"INSERT"}')`); err != nil {
		t.Fatalf("notify: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 10*time.Second)
	defer waitCancel()
	n, err := stream.Next(waitCtx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if n.Channel != "block_insert" || n.Payload != `{"type":"INSERT"}` {
		t.Fatalf("notification = %+v", n)
	}

	// a cancelled wait returns promptly with the ctx error
	cctx, ccancel := context.WithCancel(ctx)
	ccancel()
	if _, err := stream.Next(cctx); err == nil {
		t.Fatalf("expected error from cancelled Next")
	}
}
