package domain

import (
	"context"

	"github.com/tidwall/gjson"
)

// Event kinds a subscription can bind to
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Record is one row delivered by a subscription
// Raw is the "record" object of the change payload, OldRaw the "old_record" one
type Record struct {
	Table  string
	Type   string
	Raw    string
	OldRaw string
}

// Get reads a field of the new row image
func (r Record) Get(field string) gjson.Result { return gjson.Get(r.Raw, field) }

// Old reads a field of the previous row image (UPDATE and DELETE only)
func (r Record) Old(field string) gjson.Result { return gjson.Get(r.OldRaw, field) }

// SubscriptionState is the lifecycle of a subscription
// active moves to cancelled or failed, both terminal
type SubscriptionState string

// subscription states
const (
	StateActive    SubscriptionState = "active"
	StateCancelled SubscriptionState = "cancelled"
	StateFailed    SubscriptionState = "failed"
)

// Subscription is a handle on a live change feed
type Subscription interface {
	ID() string
	Cancel()
	State() SubscriptionState
	Done() <-chan struct{}
	Err() error
}

// BalanceOption tunes CalculateAddressBalance
type BalanceOption func(*BalanceOptions)

// BalanceOptions is the resolved option set
type BalanceOptions struct {
	IncludeAssets bool
}

// WithAssets opts into native asset aggregation
func WithAssets() BalanceOption {
	return func(o *BalanceOptions) { o.IncludeAssets = true }
}

// ServicePort is the indexer client contract used by transports and commands
type ServicePort interface {
	ListLatestBlocks(ctx context.Context, limit int) ([]Block, error)
	ListTransactionsForAddress(ctx context.Context, address string, limit int) ([]TxOutput, error)
	ListUnspentOutputsForAddress(ctx context.Context, address string) ([]TxOutput, error)
	GetPoolInfo(ctx context.Context, poolID string) (Pool, error)
	GetAssetInfo(ctx context.Context, policyID, assetName string) (Asset, error)
	ListDelegationHistory(ctx context.Context, stakeAddress string, limit int) ([]Delegation, error)
	CalculateAddressBalance(ctx context.Context, address string, opts ...BalanceOption) (Balance, error)
	Subscribe(ctx context.Context, collection, event string, onRecord func(Record), onError func(error)) (Subscription, error)
}
