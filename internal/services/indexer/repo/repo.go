// Package repo provides postgres access to the chain index
package repo

import (
	"context"
	"math/big"

	"cardanoidx/internal/core/lovelace"
	"cardanoidx/internal/core/query"
	"cardanoidx/internal/modkit/repokit"
	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/services/indexer/domain"
)

// Repo defines the repository contract for the indexer client
type Repo interface {
	LatestBlocks(ctx context.Context, limit int) ([]domain.Block, error)
	AddressOutputs(ctx context.Context, address string, limit int) ([]domain.TxOutput, error)
	// UnspentPage returns up to size unspent outputs with id > afterID, ascending
	UnspentPage(ctx context.Context, address string, afterID int64, size int) ([]domain.TxOutput, error)
	PoolByView(ctx context.Context, view string) (domain.Pool, error)
	// PoolUpdatesPage returns up to size updates with id < beforeID, newest first; beforeID 0 starts at the top
	PoolUpdatesPage(ctx context.Context, poolID int64, beforeID int64, size int) ([]domain.PoolUpdate, error)
	AssetByKey(ctx context.Context, policy, name []byte) (domain.Asset, error)
	Delegations(ctx context.Context, stakeAddress string, limit int) ([]domain.Delegation, error)
	// EachUnspentValue streams the lovelace value of every unspent output of address
	EachUnspentValue(ctx context.Context, address string, fn func(lovelace.Amount) error) error
	// EachUnspentAsset streams native asset totals over the unspent outputs of address
	EachUnspentAsset(ctx context.Context, address string, fn func(policy, name []byte, qty *big.Int) error) error
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) LatestBlocks(ctx context.Context, limit int) ([]domain.Block, error) {
	return many(ctx, r.q, "list_blocks", scanBlock, query.Spec{
		Collection: Blocks,
		// epoch boundary blocks carry no slot
		Filters: []query.Filter{query.NotNull("slot_no")},
		Order:   query.Desc("slot_no"),
		Limit:   limit,
	})
}

func (r *queries) AddressOutputs(ctx context.Context, address string, limit int) ([]domain.TxOutput, error) {
	return many(ctx, r.q, "list_address_txs", scanTxOutput, query.Spec{
		Collection: TxOutputs,
		Filters:    []query.Filter{query.Eq("address", address)},
		Order:      query.Desc("id"),
		Limit:      limit,
		Expand:     []string{"tx", "tx.block"},
	})
}

func (r *queries) UnspentPage(ctx context.Context, address string, afterID int64, size int) ([]domain.TxOutput, error) {
	filters := []query.Filter{query.Eq("address", address), query.IsNull("consumed_by_tx_id")}
	if afterID > 0 {
		filters = append(filters, query.After("id", afterID))
	}
	return many(ctx, r.q, "list_utxos", scanTxOutput, query.Spec{
		Collection: TxOutputs,
		Filters:    filters,
		Order:      query.Asc("id"),
		Limit:      size,
		Expand:     []string{"tx", "tx.block"},
	})
}

func (r *queries) PoolByView(ctx context.Context, view string) (domain.Pool, error) {
	// limit 2 is enough to tell one match from many
	return one(ctx, r.q, "get_pool", scanPool, query.Spec{
		Collection: Pools,
		Filters:    []query.Filter{query.Eq("view", view)},
		Order:      query.Asc("id"),
		Limit:      2,
	})
}

func (r *queries) PoolUpdatesPage(ctx context.Context, poolID int64, beforeID int64, size int) ([]domain.PoolUpdate, error) {
	filters := []query.Filter{query.Eq("hash_id", poolID)}
	if beforeID > 0 {
		filters = append(filters, query.After("id", beforeID))
	}
	return many(ctx, r.q, "get_pool_updates", scanPoolUpdate, query.Spec{
		Collection: PoolUpdates,
		Filters:    filters,
		Order:      query.Desc("id"),
		Limit:      size,
		Expand:     []string{"metadata"},
	})
}

func (r *queries) AssetByKey(ctx context.Context, policy, name []byte) (domain.Asset, error) {
	return one(ctx, r.q, "get_asset", scanAsset, query.Spec{
		Collection: Assets,
		Filters:    []query.Filter{query.Eq("policy", policy), query.Eq("name", name)},
		Order:      query.Asc("id"),
		Limit:      2,
		Expand:     []string{"policy"},
	})
}

func (r *queries) Delegations(ctx context.Context, stakeAddress string, limit int) ([]domain.Delegation, error) {
	return many(ctx, r.q, "list_delegations", scanDelegation, query.Spec{
		Collection: Delegations,
		Filters:    []query.Filter{query.Eq("addr.view", stakeAddress)},
		Order:      query.Desc("id"),
		Limit:      limit,
		Expand:     []string{"tx", "tx.block", "pool"},
	})
}

const sqlUnspentValues = `
select o.value::text
from tx_out o
where o.address = $1 and o.consumed_by_tx_id is null
`

func (r *queries) EachUnspentValue(ctx context.Context, address string, fn func(lovelace.Amount) error) error {
	err := repokit.Each(ctx, r.q, func(row repokit.Row) error {
		var s string
		if err := row.Scan(&s); err != nil {
			return err
		}
		v, err := lovelace.Parse(s)
		if err != nil {
			return err
		}
		return fn(v)
	}, sqlUnspentValues, address)
	return wrap(err, "balance_values")
}

// quantities are summed server side as numeric and scanned as text to stay exact
const sqlUnspentAssets = `
select ma.policy, ma.name, sum(mto.quantity)::text
from ma_tx_out mto
join tx_out o on o.id = mto.tx_out_id
join multi_asset ma on ma.id = mto.ident
where o.address = $1 and o.consumed_by_tx_id is null
group by ma.policy, ma.name
order by ma.policy, ma.name
`

func (r *queries) EachUnspentAsset(ctx context.Context, address string, fn func(policy, name []byte, qty *big.Int) error) error {
	err := repokit.Each(ctx, r.q, func(row repokit.Row) error {
		var (
			policy, name []byte
			s            string
		)
		if err := row.Scan(&policy, &name, &s); err != nil {
			return err
		}
		qty, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return perr.Queryf("asset quantity %q is not an integer", s)
		}
		return fn(policy, name, qty)
	}, sqlUnspentAssets, address)
	return wrap(err, "balance_assets")
}

func many[T any](ctx context.Context, q repokit.Queryer, op string, scan func(repokit.Row) (T, error), spec query.Spec) ([]T, error) {
	sql, args, err := query.Build(registry, spec)
	if err != nil {
		return nil, perr.WithOp(err, op)
	}
	out, err := repokit.Many(ctx, q, scan, sql, args...)
	if err != nil {
		return nil, wrap(err, op)
	}
	return out, nil
}

func one[T any](ctx context.Context, q repokit.Queryer, op string, scan func(repokit.Row) (T, error), spec query.Spec) (T, error) {
	var zero T
	sql, args, err := query.Build(registry, spec)
	if err != nil {
		return zero, perr.WithOp(err, op)
	}
	out, err := repokit.One(ctx, q, scan, sql, args...)
	if err != nil {
		return zero, wrap(err, op)
	}
	return out, nil
}

// wrap classifies driver errors and stamps the operation name
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return perr.WithOp(perr.AttachFieldFromPg(perr.FromPostgresf(err, "%s failed", op)), op)
}
