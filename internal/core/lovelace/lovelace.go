// Package lovelace holds exact arithmetic for ADA amounts
package lovelace

import (
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	perr "cardanoidx/internal/platform/errors"

	"github.com/shopspring/decimal"
)

// PerADA is the fixed display divisor
const PerADA = 1_000_000

// Amount is a count of lovelace
type Amount uint64

// Parse reads a non-negative integer as db-sync renders its lovelace domain
func Parse(s string) (Amount, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeQuery, "lovelace value %q", s)
	}
	return Amount(v), nil
}

// Add returns a+b or an error on uint64 overflow
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, perr.Newf(perr.ErrorCodeQuery, "lovelace overflow adding %d to %d", b, a)
	}
	return Amount(sum), nil
}

// ADA converts to ADA exactly: six decimal places, no float intermediate
func (a Amount) ADA() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -6)
}

// String renders the raw lovelace count
func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

// Sum accumulates values left to right; it stops at the first overflow
func Sum(vs ...Amount) (Amount, error) {
	var acc Amount
	for _, v := range vs {
		var err error
		if acc, err = acc.Add(v); err != nil {
			return 0, err
		}
	}
	return acc, nil
}

// Accumulator sums amounts one at a time while streaming rows
type Accumulator struct {
	total Amount
	count int
	err   error
}

// Add folds v into the running total; after an overflow further adds are ignored
func (a *Accumulator) Add(v Amount) {
	if a.err != nil {
		return
	}
	sum, err := a.total.Add(v)
	if err != nil {
		a.err = err
		return
	}
	a.total = sum
	a.count++
}

// Total returns the running sum, the number of values folded and any overflow
func (a *Accumulator) Total() (Amount, int, error) { return a.total, a.count, a.err }
