// Package service is the indexer client: read operations over the chain index
// and real-time subscriptions
package service

import (
	"context"
	"math/big"
	"strings"

	"cardanoidx/internal/core/chainid"
	"cardanoidx/internal/core/lovelace"
	"cardanoidx/internal/modkit/repokit"
	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store"
	"cardanoidx/internal/services/indexer/domain"
	"cardanoidx/internal/services/indexer/realtime"
	"cardanoidx/internal/services/indexer/repo"
)

// Service defines the service contract for the indexer client
type Service interface{ domain.ServicePort }

// Client implements the Service interface
// it holds no mutable state of its own; concurrent calls share only the pool
type Client struct {
	Repo     repo.Repo
	binder   repokit.Binder[repo.Repo]
	db       repokit.TxRunner
	listener store.Listener
	sub      *realtime.Subscriber
	limits   Limits
	hooks    []repokit.MidHook
}

var _ Service = (*Client)(nil)

// New creates an indexer client over db
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], opts ...Option) *Client {
	if db == nil {
		panic("indexer.Client requires a non nil TxRunner")
	}
	if binder == nil {
		panic("indexer.Client requires a non nil Repo binder")
	}
	c := &Client{Repo: binder.Bind(db), binder: binder, db: db, limits: DefaultLimits()}
	for _, o := range opts {
		o(c)
	}
	if c.listener != nil {
		c.sub = realtime.NewSubscriber(c.listener)
	}
	return c
}

// Limits returns the effective limits
func (c *Client) Limits() Limits { return c.limits }

// snapshot runs fn in one read-only snapshot after the configured tx hooks
func (c *Client) snapshot(ctx context.Context, fn func(ctx context.Context, q repokit.Queryer) error) error {
	return repokit.Snapshot(ctx, c.db, func(ctx context.Context, q repokit.Queryer) error {
		if err := repokit.RunMidHooks(ctx, q, c.hooks...); err != nil {
			return err
		}
		return fn(ctx, q)
	})
}

// clamp replaces a non-positive limit with def and caps it at Max
func (c *Client) clamp(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > c.limits.Max {
		limit = c.limits.Max
	}
	return limit
}

// ListLatestBlocks returns up to limit blocks, highest slot first
func (c *Client) ListLatestBlocks(ctx context.Context, limit int) ([]domain.Block, error) {
	ctx = logger.WithOp(ctx, "list_blocks")
	return c.Repo.LatestBlocks(ctx, c.clamp(limit, c.limits.Blocks))
}

// ListTransactionsForAddress returns the outputs paid to address with their tx and block, newest first
func (c *Client) ListTransactionsForAddress(ctx context.Context, address string, limit int) ([]domain.TxOutput, error) {
	ctx = logger.WithOp(ctx, "list_address_txs")
	address = strings.TrimSpace(address)
	if err := chainid.Address(address); err != nil {
		return nil, err
	}
	return c.Repo.AddressOutputs(ctx, address, c.clamp(limit, c.limits.Txs))
}

// ListUnspentOutputsForAddress returns every unspent output of address, oldest first
// pages are read inside one snapshot so the set is consistent
func (c *Client) ListUnspentOutputsForAddress(ctx context.Context, address string) ([]domain.TxOutput, error) {
	ctx = logger.WithOp(ctx, "list_utxos")
	address = strings.TrimSpace(address)
	if err := chainid.Address(address); err != nil {
		return nil, err
	}
	out := []domain.TxOutput{}
	err := c.snapshot(ctx, func(ctx context.Context, q repokit.Queryer) error {
		r := c.binder.Bind(q)
		var after int64
		for {
			page, err := r.UnspentPage(ctx, address, after, c.limits.PageSize)
			if err != nil {
				return err
			}
			out = append(out, page...)
			if len(page) < c.limits.PageSize {
				return nil
			}
			after = page[len(page)-1].ID
		}
	})
	if err != nil {
		return nil, snapshotErr(err, "list_utxos")
	}
	return out, nil
}

// GetPoolInfo returns the pool registered under the bech32 poolID with its update history, newest first
func (c *Client) GetPoolInfo(ctx context.Context, poolID string) (domain.Pool, error) {
	ctx = logger.WithOp(ctx, "get_pool")
	poolID = strings.TrimSpace(poolID)
	if err := chainid.PoolID(poolID); err != nil {
		return domain.Pool{}, err
	}
	var pool domain.Pool
	err := c.snapshot(ctx, func(ctx context.Context, q repokit.Queryer) error {
		r := c.binder.Bind(q)
		p, err := r.PoolByView(ctx, poolID)
		if err != nil {
			return single(err, "pool_id", "pool %s", poolID)
		}
		p.Updates = []domain.PoolUpdate{}
		var before int64
		for {
			page, err := r.PoolUpdatesPage(ctx, p.ID, before, c.limits.PageSize)
			if err != nil {
				return err
			}
			p.Updates = append(p.Updates, page...)
			if len(page) < c.limits.PageSize {
				break
			}
			before = page[len(page)-1].ID
		}
		pool = p
		return nil
	})
	if err != nil {
		return domain.Pool{}, snapshotErr(err, "get_pool")
	}
	return pool, nil
}

// GetAssetInfo returns the asset keyed by hex policy id and hex asset name
func (c *Client) GetAssetInfo(ctx context.Context, policyID, assetName string) (domain.Asset, error) {
	ctx = logger.WithOp(ctx, "get_asset")
	policyID, assetName = strings.TrimSpace(policyID), strings.TrimSpace(assetName)
	policy, err := chainid.PolicyID(policyID)
	if err != nil {
		return domain.Asset{}, err
	}
	name, err := chainid.AssetName(assetName)
	if err != nil {
		return domain.Asset{}, err
	}
	a, err := c.Repo.AssetByKey(ctx, policy, name)
	if err != nil {
		return domain.Asset{}, single(err, "asset", "asset %s.%s", policyID, assetName)
	}
	if a.Fingerprint == "" {
		if fp, err := chainid.Fingerprint(policy, name); err == nil {
			a.Fingerprint = fp
		}
	}
	return a, nil
}

// ListDelegationHistory returns the delegation certificates of stakeAddress, newest first
func (c *Client) ListDelegationHistory(ctx context.Context, stakeAddress string, limit int) ([]domain.Delegation, error) {
	ctx = logger.WithOp(ctx, "list_delegations")
	stakeAddress = strings.TrimSpace(stakeAddress)
	if err := chainid.StakeAddress(stakeAddress); err != nil {
		return nil, err
	}
	return c.Repo.Delegations(ctx, stakeAddress, c.clamp(limit, c.limits.Delegations))
}

// CalculateAddressBalance sums the unspent outputs of address exactly
// an address with no outputs has a zero balance, not an error
func (c *Client) CalculateAddressBalance(ctx context.Context, address string, opts ...domain.BalanceOption) (domain.Balance, error) {
	ctx = logger.WithOp(ctx, "address_balance")
	address = strings.TrimSpace(address)
	if err := chainid.Address(address); err != nil {
		return domain.Balance{}, err
	}
	var o domain.BalanceOptions
	for _, fn := range opts {
		fn(&o)
	}

	var acc lovelace.Accumulator
	assets := map[string]*big.Int{}
	err := c.snapshot(ctx, func(ctx context.Context, q repokit.Queryer) error {
		r := c.binder.Bind(q)
		if err := r.EachUnspentValue(ctx, address, func(v lovelace.Amount) error {
			acc.Add(v)
			_, _, err := acc.Total()
			return err
		}); err != nil {
			return err
		}
		if !o.IncludeAssets {
			return nil
		}
		return r.EachUnspentAsset(ctx, address, func(policy, name []byte, qty *big.Int) error {
			k := domain.AssetKey(policy, name)
			if cur, ok := assets[k]; ok {
				cur.Add(cur, qty)
				return nil
			}
			assets[k] = new(big.Int).Set(qty)
			return nil
		})
	})
	if err != nil {
		return domain.Balance{}, snapshotErr(err, "address_balance")
	}

	total, n, _ := acc.Total()
	logger.C(ctx).Debug().Str("address", address).Int("utxos", n).Msg("balance computed")
	return domain.Balance{
		Address:        address,
		ADA:            total.ADA(),
		Lovelace:       total,
		Assets:         assets,
		AssetsIncluded: o.IncludeAssets,
		UTxOCount:      n,
	}, nil
}

// Subscribe opens a real-time subscription on a known collection
func (c *Client) Subscribe(ctx context.Context, collection, event string, onRecord func(domain.Record), onError func(error)) (domain.Subscription, error) {
	ctx = logger.WithOp(ctx, "subscribe")
	if _, ok := repo.Registry().Collection(collection); !ok {
		return nil, perr.WithField(perr.Queryf("unknown collection %q", collection), "collection")
	}
	if c.sub == nil {
		return nil, perr.Unavailablef("subscriptions need a listener")
	}
	sub, err := c.sub.Subscribe(ctx, collection, event, onRecord, onError)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// single rewrites the store's bare not found and ambiguous results for one lookup
func single(err error, field, format string, a ...any) error {
	switch {
	case perr.IsNotFound(err):
		e, _ := perr.As(err)
		return perr.WithOp(perr.WithField(perr.NotFoundf(format+" not found", a...), field), e.Op())
	case perr.IsAmbiguous(err):
		e, _ := perr.As(err)
		return perr.WithOp(perr.WithField(perr.Ambiguousf(format+" matched more than one row", a...), field), e.Op())
	}
	return err
}

// snapshotErr classifies failures of the snapshot transaction itself
func snapshotErr(err error, op string) error {
	if _, ok := perr.As(err); ok {
		return err
	}
	return perr.WithOp(perr.FromPostgresf(err, "%s: snapshot", op), op)
}
