package pg

import (
	"context"
	"errors"
	"testing"

	"cardanoidx/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestConfig_PoolConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		cfg      Config
		password string
		app      string
		maxConns int32
		wantErr  bool
	}{
		{name: "bad url", cfg: Config{URL: "://bad"}, wantErr: true},
		{name: "access key overrides", cfg: Config{URL: "postgres://cexplorer:inline@db/cexplorer", Password: "access-key", AppName: "cardanoidx", MaxConns: 7},
			password: "access-key", app: "cardanoidx", maxConns: 7},
		{name: "inline password kept", cfg: Config{URL: "postgres://cexplorer:inline@db/cexplorer?pool_max_conns=3"},
			password: "inline", maxConns: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pc, err := tc.cfg.poolConfig()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("poolConfig: %v", err)
			}
			if pc.ConnConfig.Password != tc.password || pc.ConnConfig.RuntimeParams["application_name"] != tc.app || pc.MaxConns != tc.maxConns {
				t.Fatalf("pool config = password %q app %q max %d", pc.ConnConfig.Password, pc.ConnConfig.RuntimeParams["application_name"], pc.MaxConns)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	testkit.Serial(t)

	boom := errors.New("boom")
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) { return nil, boom })
	if _, err := Open(context.Background(), Config{URL: "postgres://db/cexplorer"}, nil); !errors.Is(err, boom) {
		t.Fatalf("Open = %v, want pool error", err)
	}

	pool := &pgxpool.Pool{}
	testkit.Swap(t, &newPool, func(context.Context, *pgxpool.Config) (*pgxpool.Pool, error) { return pool, nil })
	p, err := Open(context.Background(), Config{URL: "postgres://db/cexplorer", SlowMs: 250}, nil)
	if err != nil || p.Pool != pool || p.SlowMs != 250 {
		t.Fatalf("Open = %+v, %v", p, err)
	}

	var nilPG *PG
	nilPG.Close()
	(&PG{}).Close()
}

func TestRedact(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"postgres://cexplorer:hunter2@db:5432/cexplorer", "postgres://cexplorer:xxxxx@db:5432/cexplorer"},
		{"postgres://cexplorer@db:5432/cexplorer", "postgres://cexplorer@db:5432/cexplorer"},
		{"postgres://db/cexplorer?password=hunter2", "postgres://db/cexplorer?password=xxxxx"},
		{"host=db user=cexplorer password=hunter2 dbname=cexplorer", "host=db user=cexplorer password=xxxxx dbname=cexplorer"},
		{"host=db password='two words'", "host=db password=xxxxx"},
	}
	for _, c := range cases {
		if got := Redact(c.in); got != c.want {
			t.Fatalf("Redact(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
