// Package http provides http transport for the indexer client
package http

import (
	stdhttp "net/http"

	"cardanoidx/internal/modkit/httpkit"
	"cardanoidx/internal/modkit/swaggerkit"
	"cardanoidx/internal/services/indexer/domain"
)

// Register mounts indexer endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.GetQuery[domain.LimitQuery](r, "/blocks", h.blocks)
	httpkit.GetQuery[domain.LimitQuery](r, "/addresses/{address}/transactions", h.addressTxs)
	httpkit.Get(r, "/addresses/{address}/utxos", h.utxos)
	httpkit.GetQuery[domain.BalanceQuery](r, "/addresses/{address}/balance", h.balance)
	httpkit.Get(r, "/pools/{poolID}", h.pool)
	httpkit.Get(r, "/assets/{policyID}", h.asset)
	httpkit.Get(r, "/assets/{policyID}/{assetName}", h.asset)
	httpkit.GetQuery[domain.LimitQuery](r, "/accounts/{stakeAddress}/delegations", h.delegations)
}

// Document registers the endpoint descriptions served by the docs UI
func Document(prefix string) {
	limit := swaggerkit.Param{Name: "limit", In: "query", Type: "integer", Description: "page size, capped by the server"}
	addr := swaggerkit.Param{Name: "address", In: "path", Description: "bech32 or Byron base58 payment address"}
	for _, op := range []swaggerkit.SpecMutator{
		swaggerkit.Operation("GET", prefix+"/blocks", "Indexer", "Latest blocks, highest slot first", limit),
		swaggerkit.Operation("GET", prefix+"/addresses/{address}/transactions", "Indexer", "Outputs paid to an address with their transaction", addr, limit),
		swaggerkit.Operation("GET", prefix+"/addresses/{address}/utxos", "Indexer", "Unspent outputs of an address", addr),
		swaggerkit.Operation("GET", prefix+"/addresses/{address}/balance", "Indexer", "ADA balance of an address", addr,
			swaggerkit.Param{Name: "assets", In: "query", Type: "boolean", Description: "also sum native assets"}),
		swaggerkit.Operation("GET", prefix+"/pools/{poolID}", "Indexer", "Stake pool with its registration history",
			swaggerkit.Param{Name: "poolID", In: "path", Description: "bech32 pool id"}),
		swaggerkit.Operation("GET", prefix+"/assets/{policyID}/{assetName}", "Indexer", "Native asset by policy and name",
			swaggerkit.Param{Name: "policyID", In: "path", Description: "hex policy id"},
			swaggerkit.Param{Name: "assetName", In: "path", Description: "hex asset name"}),
		swaggerkit.Operation("GET", prefix+"/accounts/{stakeAddress}/delegations", "Indexer", "Delegation history of a stake address",
			swaggerkit.Param{Name: "stakeAddress", In: "path", Description: "bech32 stake address"}, limit),
	} {
		swaggerkit.Register(op)
	}
}

type handlers struct{ svc domain.ServicePort }

// blocks clamps ?limit= through the service defaults
func (h *handlers) blocks(r *stdhttp.Request, in domain.LimitQuery) (any, error) {
	return h.svc.ListLatestBlocks(r.Context(), in.Limit)
}

func (h *handlers) addressTxs(r *stdhttp.Request, in domain.LimitQuery) (any, error) {
	return h.svc.ListTransactionsForAddress(r.Context(), httpkit.Param(r, "address"), in.Limit)
}

func (h *handlers) utxos(r *stdhttp.Request) (any, error) {
	return h.svc.ListUnspentOutputsForAddress(r.Context(), httpkit.Param(r, "address"))
}

func (h *handlers) balance(r *stdhttp.Request, in domain.BalanceQuery) (any, error) {
	var opts []domain.BalanceOption
	if in.Assets {
		opts = append(opts, domain.WithAssets())
	}
	return h.svc.CalculateAddressBalance(r.Context(), httpkit.Param(r, "address"), opts...)
}

func (h *handlers) pool(r *stdhttp.Request) (any, error) {
	return h.svc.GetPoolInfo(r.Context(), httpkit.Param(r, "poolID"))
}

// asset serves both routes; a missing name segment is the empty asset name
func (h *handlers) asset(r *stdhttp.Request) (any, error) {
	return h.svc.GetAssetInfo(r.Context(), httpkit.Param(r, "policyID"), httpkit.Param(r, "assetName"))
}

func (h *handlers) delegations(r *stdhttp.Request, in domain.LimitQuery) (any, error) {
	return h.svc.ListDelegationHistory(r.Context(), httpkit.Param(r, "stakeAddress"), in.Limit)
}
