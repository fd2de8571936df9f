package repokit

import (
	"context"
	"fmt"
	"time"
)

// pingTimeout bounds a startup check whose ctx has no deadline
const pingTimeout = 5 * time.Second

// MustPing panics unless p answers; the demo refuses to stream without a database
func MustPing(ctx context.Context, name string, p interface{ Ping(context.Context) error }) {
	if p == nil {
		panic(fmt.Sprintf("%s: nil dependency", name))
	}
	mustPass(ctx, name+" ping failed", p.Ping)
}

// MustGuard panics unless every seam of the store answers; the api refuses to serve without an index
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	mustPass(ctx, "dependency guard failed", st.Guard)
}

func mustPass(ctx context.Context, what string, check func(context.Context) error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := check(ctx); err != nil {
		panic(fmt.Errorf("%s: %w", what, err))
	}
}
