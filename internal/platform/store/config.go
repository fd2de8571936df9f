package store

import (
	"time"

	"cardanoidx/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled bool
	URL     string

	// AccessKey overrides any password embedded in URL; masked in fmt and logs
	AccessKey config.Secret

	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero means the defaults in openers.go
	ConnectRetries int
	PingTimeout    time.Duration
}

// FromEnv reads PGConfig under prefix (CARDANOIDX_PG_URL, CARDANOIDX_PG_ACCESS_KEY, ...)
// URL is required; everything else has a default
func FromEnv(c config.Conf) PGConfig {
	pg := c.Prefix("PG_")
	return PGConfig{
		Enabled:        true,
		URL:            pg.MustURL("URL").String(),
		AccessKey:      pg.MaySecret("ACCESS_KEY", ""),
		MaxConns:       int32(pg.MayPositiveInt("MAX_CONNS", 8)),
		LogSQL:         pg.MayBool("LOG_SQL", false),
		SlowQueryMs:    pg.MayInt("SLOW_MS", 500),
		ConnectRetries: pg.MayPositiveInt("CONNECT_RETRIES", 6),
		PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
	}
}
