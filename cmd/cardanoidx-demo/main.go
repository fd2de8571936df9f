// Command cardanoidx-demo walks through every indexer read against a live
// db-sync database, then follows new blocks for a bounded time
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardanoidx/internal/modkit/repokit"
	"cardanoidx/internal/platform/config"
	"cardanoidx/internal/platform/logger"
	"cardanoidx/internal/platform/store"
	"cardanoidx/internal/services/indexer/realtime"
	indexerrepo "cardanoidx/internal/services/indexer/repo"
	indexersvc "cardanoidx/internal/services/indexer/service"
)

func main() {
	var (
		fAddress  = flag.String("address", "", "payment address to inspect (skips address reads when empty)")
		fStake    = flag.String("stake", "", "stake address for delegation history")
		fPool     = flag.String("pool", "", "bech32 pool id")
		fPolicy   = flag.String("policy", "", "hex policy id")
		fAsset    = flag.String("asset", "", "hex asset name (with -policy)")
		fBlocks   = flag.Int("blocks", 5, "latest blocks to list")
		fTxs      = flag.Int("txs", 10, "address outputs to list")
		fAssets   = flag.Bool("assets", false, "include native assets in the balance")
		fDuration = flag.Duration("duration", 30*time.Second, "how long to follow new blocks (0 skips the subscription)")
		fTrigger  = flag.Bool("print-trigger", false, "print the NOTIFY trigger DDL for block inserts and exit")
	)
	flag.Parse()

	if *fTrigger {
		ddl, err := realtime.TriggerDDL("block", "insert")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println(ddl)
		return
	}

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "cardanoidx-demo",
		PG:      store.FromEnv(root.Prefix("CARDANOIDX_")),
	}, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if p, ok := st.PG.(store.Pinger); ok {
		repokit.MustPing(ctx, "indexer db", p)
	}

	icfg := root.Prefix("CARDANOIDX_INDEXER_")
	client := indexersvc.New(st.PG, indexerrepo.NewPG(),
		indexersvc.WithLimits(indexersvc.LimitsFromConfig(icfg)),
		indexersvc.WithStatementTimeout(icfg.MayDuration("STATEMENT_TIMEOUT", 0)),
		indexersvc.WithListener(st.Listener),
	)

	err = walkthrough(ctx, client, os.Stdout, demoOptions{
		Address:  *fAddress,
		Stake:    *fStake,
		Pool:     *fPool,
		Policy:   *fPolicy,
		Asset:    *fAsset,
		Blocks:   *fBlocks,
		Txs:      *fTxs,
		Assets:   *fAssets,
		Duration: *fDuration,
	})
	if err != nil {
		l.Error().Err(err).Msg("demo failed")
		os.Exit(1)
	}
}
