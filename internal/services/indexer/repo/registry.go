package repo

import "cardanoidx/internal/core/query"

// collection names
const (
	Blocks      = "block"
	TxOutputs   = "tx_out"
	Pools       = "pool_hash"
	PoolUpdates = "pool_update"
	Assets      = "multi_asset"
	Delegations = "delegation"
)

// column order here is the scan order in scan.go
var registry = query.NewRegistry(
	query.Collection{
		Name:    Blocks,
		Table:   "block",
		Alias:   "b",
		Columns: query.Cols("id", "hash", "epoch_no", "slot_no", "epoch_slot_no", "block_no", "size", "time", "tx_count"),
	},
	query.Collection{
		Name:  TxOutputs,
		Table: "tx_out",
		Alias: "o",
		Columns: []query.Column{
			{Name: "id"}, {Name: "tx_id"}, {Name: "index"}, {Name: "address"},
			query.Cast("value", "text"), {Name: "data_hash"}, {Name: "consumed_by_tx_id"},
		},
		Relations: []query.Relation{
			{Path: "tx", Table: "tx", Alias: "t", On: "t.id = o.tx_id", Columns: query.Cols("hash")},
			{Path: "tx.block", Table: "block", Alias: "tb", On: "tb.id = t.block_id", Columns: query.Cols("time", "slot_no", "block_no")},
		},
	},
	query.Collection{
		Name:    Pools,
		Table:   "pool_hash",
		Alias:   "ph",
		Columns: query.Cols("id", "view", "hash_raw"),
	},
	query.Collection{
		Name:  PoolUpdates,
		Table: "pool_update",
		Alias: "pu",
		Columns: []query.Column{
			{Name: "id"}, {Name: "hash_id"}, {Name: "cert_index"}, query.Cast("pledge", "text"),
			{Name: "margin"}, query.Cast("fixed_cost", "text"), {Name: "active_epoch_no"}, {Name: "vrf_key_hash"},
		},
		Relations: []query.Relation{
			{Path: "metadata", Table: "pool_metadata_ref", Alias: "pm", On: "pm.id = pu.meta_id", Columns: query.Cols("id", "url", "hash")},
		},
	},
	query.Collection{
		Name:    Assets,
		Table:   "multi_asset",
		Alias:   "ma",
		Columns: query.Cols("id", "policy", "name", "fingerprint"),
		Relations: []query.Relation{
			{
				Path:    "policy",
				Table:   "(select policy, count(*) as asset_count from multi_asset group by policy)",
				Alias:   "mp",
				On:      "mp.policy = ma.policy",
				Columns: query.Cols("policy", "asset_count"),
			},
		},
	},
	query.Collection{
		Name:    Delegations,
		Table:   "delegation",
		Alias:   "d",
		Columns: query.Cols("id", "cert_index", "active_epoch_no", "slot_no"),
		Relations: []query.Relation{
			{Path: "addr", Table: "stake_address", Alias: "sa", On: "sa.id = d.addr_id", Columns: query.Cols("view")},
			{Path: "tx", Table: "tx", Alias: "t", On: "t.id = d.tx_id", Columns: query.Cols("hash")},
			{Path: "tx.block", Table: "block", Alias: "tb", On: "tb.id = t.block_id", Columns: query.Cols("time", "epoch_no")},
			{Path: "pool", Table: "pool_hash", Alias: "ph", On: "ph.id = d.pool_hash_id", Columns: query.Cols("view")},
		},
	},
)

// Registry exposes the collections for callers that compile their own specs
func Registry() *query.Registry { return registry }
