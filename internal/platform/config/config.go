// Package config reads typed settings from prefixed environment variables
// required keys panic at boot, optional ones warn and fall back
package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"cardanoidx/internal/platform/config/raw"
	"cardanoidx/internal/platform/logger"
)

// Conf is a prefixed view, e.g. New().Prefix("CARDANOIDX_").Prefix("PG_")
type Conf struct{ env raw.Conf }

// New returns the unprefixed view
func New() Conf { return Conf{env: raw.New()} }

// Prefix appends p to the view's prefix
func (c Conf) Prefix(p string) Conf { return Conf{env: c.env.Prefix(p)} }

// MustString panics when key is unset or blank
func (c Conf) MustString(key string) string {
	v := c.env.Lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.env.Key(key)).Msg("missing required env")
	}
	return v
}

// MustURL panics unless key holds an absolute URL; the value is never logged
func (c Conf) MustURL(key string) *url.URL {
	u, err := url.Parse(c.MustString(key))
	if err != nil || !u.IsAbs() {
		logger.Get().Panic().Str("key", c.env.Key(key)).Msg("invalid absolute URL")
	}
	return u
}

// MaySecret returns the credential under key, or def
func (c Conf) MaySecret(key, def string) Secret { return Secret(c.MayString(key, def)) }

// MayString returns the value under key, or def
func (c Conf) MayString(key, def string) string {
	if v := c.env.Lookup(key); v != "" {
		return v
	}
	return def
}

// may parses key with parse, warning and returning def when the value is invalid
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.env.Lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.env.Key(key)).Str("value", s).Interface("default", def).Msg("invalid value; using default")
		return def
	}
	return v
}

// MayInt returns the integer under key, or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayPositiveInt is MayInt that also treats zero and negatives as invalid
func (c Conf) MayPositiveInt(key string, def int) int {
	return may(c, key, def, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && n <= 0 {
			err = strconv.ErrRange
		}
		return n, err
	})
}

// MayBool returns the strconv bool under key, or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns the Go duration under key (500ms, 2s), or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits key on commas dropping blanks; def when nothing is left
func (c Conf) MayCSV(key string, def []string) []string {
	var out []string
	for _, p := range strings.Split(c.env.Lookup(key), ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// Secret holds a credential read from the environment
// it prints as a mask so it cannot leak through fmt or zerolog Interface fields
type Secret string

// Reveal returns the raw credential for handing to a driver
func (s Secret) Reveal() string { return string(s) }

// String implements fmt.Stringer with a mask
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "********"
}

// GoString keeps %#v masked too
func (s Secret) GoString() string { return s.String() }

// MarshalText keeps JSON and zerolog output masked
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
