// Package raw reads environment variables without logging
// so the logger can configure itself from the same keys config reads
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix appends p to the view's prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the full variable name for k
func (c Conf) Key(k string) string { return c.prefix + k }

// Lookup returns the trimmed value of k, or ""
func (c Conf) Lookup(k string) string { return strings.TrimSpace(os.Getenv(c.Key(k))) }

// Keyed is one candidate for First
type Keyed struct {
	conf Conf
	key  string
}

// At names key under this view
func (c Conf) At(key string) Keyed { return Keyed{c, key} }

// First returns the first non-empty candidate, or def
func First(def string, candidates ...Keyed) string {
	for _, k := range candidates {
		if v := k.conf.Lookup(k.key); v != "" {
			return v
		}
	}
	return def
}

// GetBool accepts strconv bools plus yes/no; anything else is def
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.Lookup(key)); v {
	case "yes":
		return true
	case "no":
		return false
	default:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		return def
	}
}

// GetInt returns a non-negative integer, or def when unset or invalid
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.Lookup(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
