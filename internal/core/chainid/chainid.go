// Package chainid validates the Cardano identifiers the indexer accepts
// before any query is issued
package chainid

import (
	"encoding/hex"
	"hash/crc32"
	"strings"

	perr "cardanoidx/internal/platform/errors"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// human readable parts
const (
	hrpAddr        = "addr"
	hrpAddrTest    = "addr_test"
	hrpStake       = "stake"
	hrpStakeTest   = "stake_test"
	hrpPool        = "pool"
	hrpAssetFinger = "asset"
)

// sizes in bytes
const (
	PolicyIDLen     = 28
	MaxAssetNameLen = 32
	poolKeyHashLen  = 28
	stakeAddrLen    = 29
	fingerprintLen  = 20
)

// CBOR tag 24 wraps encoded CBOR data items
const tagEncodedCBOR = 24

// byronAddress is the outer [#6.24(bytes), crc32] envelope of a Byron address
type byronAddress struct {
	_       struct{} `cbor:",toarray"`
	Payload cbor.RawTag
	CRC     uint32
}

// Address accepts Shelley bech32 addresses (addr, addr_test) and Byron base58 addresses
func Address(s string) error {
	if s == "" {
		return perr.WithField(perr.InvalidArgf("address is required"), "address")
	}
	if strings.HasPrefix(s, hrpAddr) {
		_, err := decode(s, "address", hrpAddr, hrpAddrTest)
		return err
	}
	if err := byron(s); err != nil {
		return perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "address %q is neither bech32 nor byron base58", s), "address")
	}
	return nil
}

// byron decodes the base58 CBOR envelope and checks the payload crc
func byron(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return err
	}
	var a byronAddress
	if err := cbor.Unmarshal(raw, &a); err != nil {
		return err
	}
	if a.Payload.Number != tagEncodedCBOR {
		return perr.InvalidArgf("byron payload tag %d, want %d", a.Payload.Number, tagEncodedCBOR)
	}
	var payload []byte
	if err := cbor.Unmarshal(a.Payload.Content, &payload); err != nil {
		return err
	}
	if crc32.ChecksumIEEE(payload) != a.CRC {
		return perr.InvalidArgf("byron crc mismatch")
	}
	return nil
}

// StakeAddress accepts reward account addresses (stake, stake_test)
func StakeAddress(s string) error {
	data, err := decode(s, "stake_address", hrpStake, hrpStakeTest)
	if err != nil {
		return err
	}
	if len(data) != stakeAddrLen {
		return perr.WithField(perr.InvalidArgf("stake address payload is %d bytes, want %d", len(data), stakeAddrLen), "stake_address")
	}
	return nil
}

// PoolID accepts bech32 pool ids (pool1...)
func PoolID(s string) error {
	data, err := decode(s, "pool_id", hrpPool)
	if err != nil {
		return err
	}
	if len(data) != poolKeyHashLen {
		return perr.WithField(perr.InvalidArgf("pool id payload is %d bytes, want %d", len(data), poolKeyHashLen), "pool_id")
	}
	return nil
}

// PolicyID decodes a 56 character hex policy id
func PolicyID(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != PolicyIDLen {
		return nil, perr.WithField(perr.InvalidArgf("policy id must be %d hex characters", PolicyIDLen*2), "policy_id")
	}
	return b, nil
}

// AssetName decodes a hex asset name of at most 64 characters; empty is a valid name
func AssetName(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) > MaxAssetNameLen {
		return nil, perr.WithField(perr.InvalidArgf("asset name must be hex of at most %d characters", MaxAssetNameLen*2), "asset_name")
	}
	return b, nil
}

// Fingerprint derives the asset fingerprint: bech32 "asset" over blake2b-160(policy || name)
func Fingerprint(policy, name []byte) (string, error) {
	h, err := blake2b.New(fingerprintLen, nil)
	if err != nil {
		return "", err
	}
	h.Write(policy)
	h.Write(name)
	conv, err := bech32.ConvertBits(h.Sum(nil), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrpAssetFinger, conv)
}

// decode checks the checksum and prefix and returns the 8-bit payload
// Cardano strings exceed the 90 character BIP-173 cap, so no length limit applies
func decode(s, field string, hrps ...string) ([]byte, error) {
	if s == "" {
		return nil, perr.WithField(perr.InvalidArgf("%s is required", field), field)
	}
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s is not valid bech32", field), field)
	}
	ok := false
	for _, want := range hrps {
		if hrp == want {
			ok = true
			break
		}
	}
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("%s has prefix %q, want one of %s", field, hrp, strings.Join(hrps, ", ")), field)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "%s payload", field), field)
	}
	return raw, nil
}
