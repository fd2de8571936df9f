package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	perr "cardanoidx/internal/platform/errors"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/services/indexer/domain"

	"github.com/tidwall/pretty"
)

type demoOptions struct {
	Address, Stake, Pool, Policy, Asset string

	Blocks, Txs int
	Assets      bool
	Duration    time.Duration
}

// walkthrough runs each read in turn; a failed step is reported and the next one still runs
// only a subscription that cannot be opened fails the whole run
func walkthrough(ctx context.Context, svc domain.ServicePort, w io.Writer, o demoOptions) error {
	step := func(title string, fn func() (any, error)) {
		fmt.Fprintf(w, "\n== %s\n", title)
		v, err := fn()
		if err != nil {
			fmt.Fprintf(w, "error (%s): %v\n", perr.CodeOf(err), err)
			logger.C(ctx).Warn().Err(err).Str("step", title).Msg("demo step failed")
			return
		}
		raw, err := json.Marshal(v)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return
		}
		_, _ = w.Write(pretty.Pretty(raw))
	}

	step("Latest blocks", func() (any, error) { return svc.ListLatestBlocks(ctx, o.Blocks) })

	if o.Address != "" {
		step("Recent transactions", func() (any, error) { return svc.ListTransactionsForAddress(ctx, o.Address, o.Txs) })
		step("UTxOs", func() (any, error) { return svc.ListUnspentOutputsForAddress(ctx, o.Address) })
		step("Balance", func() (any, error) {
			var opts []domain.BalanceOption
			if o.Assets {
				opts = append(opts, domain.WithAssets())
			}
			return svc.CalculateAddressBalance(ctx, o.Address, opts...)
		})
	}
	if o.Pool != "" {
		step("Pool", func() (any, error) { return svc.GetPoolInfo(ctx, o.Pool) })
	}
	if o.Policy != "" {
		step("Asset", func() (any, error) { return svc.GetAssetInfo(ctx, o.Policy, o.Asset) })
	}
	if o.Stake != "" {
		step("Delegations", func() (any, error) { return svc.ListDelegationHistory(ctx, o.Stake, 0) })
	}

	if o.Duration <= 0 {
		return nil
	}

	fmt.Fprintf(w, "\n== Subscribing to new blocks for %s\n", o.Duration)
	sub, err := svc.Subscribe(ctx, "block", "insert",
		func(rec domain.Record) {
			fmt.Fprintf(w, "New block #%d at slot %d\n", rec.Get("block_no").Int(), rec.Get("slot_no").Int())
		},
		func(err error) {
			fmt.Fprintf(w, "subscription failed (%s): %v\n", perr.CodeOf(err), err)
		},
	)
	if err != nil {
		return err
	}

	timer := time.NewTimer(o.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-sub.Done():
	}
	sub.Cancel()
	fmt.Fprintln(w, "Unsubscribed from block updates")
	return nil
}
