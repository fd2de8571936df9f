package repokit

import (
	"context"
	"strconv"
	"time"
)

// MidHook is a function you call explicitly inside a tx when you need it
type MidHook func(ctx context.Context, q Queryer) error

// RunMidHooks runs the given mid hooks using the tx bound Queryer
func RunMidHooks(ctx context.Context, q Queryer, hooks ...MidHook) error {
	for _, hk := range hooks {
		if err := hk(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// StatementTimeout caps every later statement of the current tx at d
// set_config with is_local=true ends with the tx, so pooled sessions stay clean
func StatementTimeout(d time.Duration) MidHook {
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	return func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, "select set_config('statement_timeout', $1, true)", ms)
		return err
	}
}
