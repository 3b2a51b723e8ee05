package usecase

import (
	"context"
	"sync"
)

type outboxKey struct{}

// outbox holds lifecycle events raised inside a caller's transaction. They
// go out on flush after commit and are dropped when the transaction fails.
type outbox struct {
	mu      sync.Mutex
	pending []func()
}

func withOutbox(ctx context.Context, o *outbox) context.Context {
	return context.WithValue(ctx, outboxKey{}, o)
}

func outboxFrom(ctx context.Context) *outbox {
	o, _ := ctx.Value(outboxKey{}).(*outbox)
	return o
}

func (o *outbox) add(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, fn)
}

func (o *outbox) flush() {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}
