package service

import (
	"time"

	"cardanoidx/internal/modkit/repokit"
	"cardanoidx/internal/platform/config"
	"cardanoidx/internal/platform/store"
)

// Limits are the per operation defaults and caps
type Limits struct {
	Blocks      int
	Txs         int
	Delegations int
	// Max clamps any caller supplied limit
	Max int
	// PageSize is the keyset page for uncapped listings
	PageSize int
}

// DefaultLimits mirrors the defaults documented on each operation
func DefaultLimits() Limits {
	return Limits{Blocks: 10, Txs: 50, Delegations: 20, Max: 1000, PageSize: 1000}
}

// LimitsFromConfig reads CARDANOIDX_INDEXER_* style keys from c (already prefixed)
func LimitsFromConfig(c config.Conf) Limits {
	d := DefaultLimits()
	return Limits{
		Blocks:      c.MayPositiveInt("BLOCKS_LIMIT", d.Blocks),
		Txs:         c.MayPositiveInt("TXS_LIMIT", d.Txs),
		Delegations: c.MayPositiveInt("DELEGATIONS_LIMIT", d.Delegations),
		Max:         c.MayPositiveInt("MAX_LIMIT", d.Max),
		PageSize:    c.MayPositiveInt("PAGE_SIZE", d.PageSize),
	}
}

// Option configures a Client
type Option func(*Client)

// WithLimits overrides the limits; zero fields keep their defaults
func WithLimits(l Limits) Option {
	return func(c *Client) {
		d := DefaultLimits()
		pick := func(v, def int) int {
			if v > 0 {
				return v
			}
			return def
		}
		c.limits = Limits{
			Blocks:      pick(l.Blocks, d.Blocks),
			Txs:         pick(l.Txs, d.Txs),
			Delegations: pick(l.Delegations, d.Delegations),
			Max:         pick(l.Max, d.Max),
			PageSize:    pick(l.PageSize, d.PageSize),
		}
	}
}

// WithListener enables Subscribe over l
func WithListener(l store.Listener) Option {
	return func(c *Client) { c.listener = l }
}

// WithStatementTimeout caps each statement of snapshot reads at d; zero leaves the server default
func WithStatementTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hooks = append(c.hooks, repokit.StatementTimeout(d))
		}
	}
}
