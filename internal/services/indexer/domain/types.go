// Package domain holds the read-only record projections returned by the indexer
// client and the contracts between its layers
package domain

import (
	"encoding/hex"
	"math/big"
	"time"

	"cardanoidx/internal/core/lovelace"

	"github.com/shopspring/decimal"
)

// Hex is raw bytes rendered as lowercase hex in JSON and logs
type Hex []byte

// String returns the hex form
func (h Hex) String() string { return hex.EncodeToString(h) }

// MarshalText implements encoding.TextMarshaler
func (h Hex) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// Block is one row of the block collection
type Block struct {
	ID          int64     `json:"id"`
	Hash        Hex       `json:"hash"`
	EpochNo     *int64    `json:"epoch_no"`
	SlotNo      *int64    `json:"slot_no"`
	EpochSlotNo *int64    `json:"epoch_slot_no"`
	BlockNo     *int64    `json:"block_no"`
	Size        int64     `json:"size"`
	Time        time.Time `json:"time"`
	TxCount     int64     `json:"tx_count"`
}

// BlockRef is the slice of a block carried on expanded records
type BlockRef struct {
	Time    time.Time `json:"time"`
	SlotNo  *int64    `json:"slot_no,omitempty"`
	BlockNo *int64    `json:"block_no,omitempty"`
	EpochNo *int64    `json:"epoch_no,omitempty"`
}

// TxRef is the slice of a transaction carried on expanded records
type TxRef struct {
	Hash  Hex       `json:"hash"`
	Block *BlockRef `json:"block,omitempty"`
}

// TxOutput is one row of the tx_out collection
// ConsumedByTxID is nil while the output is unspent
type TxOutput struct {
	ID             int64           `json:"id"`
	TxID           int64           `json:"tx_id"`
	Index          int32           `json:"index"`
	Address        string          `json:"address"`
	Value          lovelace.Amount `json:"value"`
	DataHash       Hex             `json:"data_hash,omitempty"`
	ConsumedByTxID *int64          `json:"consumed_by_tx_id"`
	Tx             *TxRef          `json:"tx,omitempty"`
}

// Pool is a registered stake pool with its update certificates, newest first
type Pool struct {
	ID      int64        `json:"id"`
	View    string       `json:"view"`
	HashRaw Hex          `json:"hash_raw"`
	Updates []PoolUpdate `json:"updates"`
}

// PoolUpdate is one pool registration certificate
type PoolUpdate struct {
	ID            int64            `json:"id"`
	CertIndex     int32            `json:"cert_index"`
	Pledge        lovelace.Amount  `json:"pledge"`
	Margin        float64          `json:"margin"`
	FixedCost     lovelace.Amount  `json:"fixed_cost"`
	ActiveEpochNo int64            `json:"active_epoch_no"`
	VRFKeyHash    Hex              `json:"vrf_key_hash"`
	Metadata      *PoolMetadataRef `json:"metadata,omitempty"`
}

// PoolMetadataRef points at off-chain pool metadata
type PoolMetadataRef struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Hash Hex    `json:"hash"`
}

// Asset is one native asset identified by policy and name
type Asset struct {
	ID          int64   `json:"id"`
	PolicyID    Hex     `json:"policy_id"`
	Name        Hex     `json:"name"`
	Fingerprint string  `json:"fingerprint"`
	Policy      *Policy `json:"policy,omitempty"`
}

// Policy summarizes a minting policy
type Policy struct {
	ID         Hex   `json:"id"`
	AssetCount int64 `json:"asset_count"`
}

// PoolRef is the delegated-to pool on a delegation record
type PoolRef struct {
	View string `json:"view"`
}

// Delegation is one stake delegation certificate
type Delegation struct {
	ID            int64    `json:"id"`
	CertIndex     int32    `json:"cert_index"`
	ActiveEpochNo int64    `json:"active_epoch_no"`
	SlotNo        int64    `json:"slot_no"`
	Tx            *TxRef   `json:"tx,omitempty"`
	Pool          *PoolRef `json:"pool,omitempty"`
}

// Balance is the derived value held by an address across its unspent outputs
// Assets is keyed "<policy hex>.<name hex>" and is only populated when
// AssetsIncluded is true
// ADA marshals as a decimal string ("1.5") so no float parser rounds it;
// Lovelace is the same value as an integer
type Balance struct {
	Address        string              `json:"address"`
	ADA            decimal.Decimal     `json:"ada"`
	Lovelace       lovelace.Amount     `json:"lovelace"`
	Assets         map[string]*big.Int `json:"assets"`
	AssetsIncluded bool                `json:"assets_included"`
	UTxOCount      int                 `json:"utxo_count"`
}

// AssetKey renders the Balance.Assets key for a policy and name
func AssetKey(policy, name []byte) string {
	return hex.EncodeToString(policy) + "." + hex.EncodeToString(name)
}
