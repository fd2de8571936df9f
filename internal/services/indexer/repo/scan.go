package repo

import (
	"time"

	"cardanoidx/internal/core/lovelace"
	"cardanoidx/internal/modkit/repokit"
	"cardanoidx/internal/services/indexer/domain"
)

func scanBlock(r repokit.Row) (domain.Block, error) {
	var b domain.Block
	var hash []byte
	err := r.Scan(&b.ID, &hash, &b.EpochNo, &b.SlotNo, &b.EpochSlotNo, &b.BlockNo, &b.Size, &b.Time, &b.TxCount)
	b.Hash = hash
	return b, err
}

// scanTxOutput reads base columns plus the tx and tx.block expansions
func scanTxOutput(r repokit.Row) (domain.TxOutput, error) {
	var (
		o         domain.TxOutput
		value     string
		dataHash  []byte
		txHash    []byte
		blockTime *time.Time
		slotNo    *int64
		blockNo   *int64
	)
	if err := r.Scan(
		&o.ID, &o.TxID, &o.Index, &o.Address, &value, &dataHash, &o.ConsumedByTxID,
		&txHash, &blockTime, &slotNo, &blockNo,
	); err != nil {
		return o, err
	}
	v, err := lovelace.Parse(value)
	if err != nil {
		return o, err
	}
	o.Value = v
	o.DataHash = dataHash
	if txHash != nil {
		o.Tx = &domain.TxRef{Hash: txHash}
		if blockTime != nil {
			o.Tx.Block = &domain.BlockRef{Time: *blockTime, SlotNo: slotNo, BlockNo: blockNo}
		}
	}
	return o, nil
}

func scanPool(r repokit.Row) (domain.Pool, error) {
	var p domain.Pool
	var raw []byte
	err := r.Scan(&p.ID, &p.View, &raw)
	p.HashRaw = raw
	return p, err
}

// scanPoolUpdate reads base columns plus the metadata expansion
func scanPoolUpdate(r repokit.Row) (domain.PoolUpdate, error) {
	var (
		u         domain.PoolUpdate
		hashID    int64
		pledge    string
		fixedCost string
		vrf       []byte
		metaID    *int64
		metaURL   *string
		metaHash  []byte
	)
	if err := r.Scan(
		&u.ID, &hashID, &u.CertIndex, &pledge, &u.Margin, &fixedCost, &u.ActiveEpochNo, &vrf,
		&metaID, &metaURL, &metaHash,
	); err != nil {
		return u, err
	}
	var err error
	if u.Pledge, err = lovelace.Parse(pledge); err != nil {
		return u, err
	}
	if u.FixedCost, err = lovelace.Parse(fixedCost); err != nil {
		return u, err
	}
	u.VRFKeyHash = vrf
	if metaID != nil {
		m := &domain.PoolMetadataRef{ID: *metaID, Hash: metaHash}
		if metaURL != nil {
			m.URL = *metaURL
		}
		u.Metadata = m
	}
	return u, nil
}

// scanAsset reads base columns plus the policy summary expansion
func scanAsset(r repokit.Row) (domain.Asset, error) {
	var (
		a           domain.Asset
		policy      []byte
		name        []byte
		fingerprint *string
		summaryID   []byte
		count       *int64
	)
	if err := r.Scan(&a.ID, &policy, &name, &fingerprint, &summaryID, &count); err != nil {
		return a, err
	}
	a.PolicyID = policy
	a.Name = name
	if fingerprint != nil {
		a.Fingerprint = *fingerprint
	}
	if summaryID != nil && count != nil {
		a.Policy = &domain.Policy{ID: summaryID, AssetCount: *count}
	}
	return a, nil
}

// scanDelegation reads base columns plus tx, tx.block and pool expansions
func scanDelegation(r repokit.Row) (domain.Delegation, error) {
	var (
		d         domain.Delegation
		txHash    []byte
		blockTime *time.Time
		epochNo   *int64
		poolView  *string
	)
	if err := r.Scan(&d.ID, &d.CertIndex, &d.ActiveEpochNo, &d.SlotNo, &txHash, &blockTime, &epochNo, &poolView); err != nil {
		return d, err
	}
	if txHash != nil {
		d.Tx = &domain.TxRef{Hash: txHash}
		if blockTime != nil {
			d.Tx.Block = &domain.BlockRef{Time: *blockTime, EpochNo: epochNo}
		}
	}
	if poolView != nil {
		d.Pool = &domain.PoolRef{View: *poolView}
	}
	return d, nil
}
