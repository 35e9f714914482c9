package cart

import (
	"context"
	"sync"

	pkgerrors "github.com/ecofinds/ecofinds-core/pkg/errors"
)

var errQueueClosed = pkgerrors.New(pkgerrors.CodeInternal, "cart is closed")

type queuedOp struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
}

// opQueue runs submitted operations one at a time in submission order.
type opQueue struct {
	ops     chan queuedOp
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newOpQueue(depth int) *opQueue {
	q := &opQueue{
		ops:     make(chan queuedOp, depth),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *opQueue) run() {
	defer close(q.stopped)
	for {
		select {
		case op := <-q.ops:
			op.result <- op.fn(op.ctx)
		case <-q.done:
			return
		}
	}
}

// Do enqueues fn and waits for it to run. A cancelled ctx stops the wait but
// not an operation that already started.
func (q *opQueue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	op := queuedOp{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return errQueueClosed
	}

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopped:
		select {
		case err := <-op.result:
			return err
		default:
			return errQueueClosed
		}
	}
}

// Close stops the worker after the operation in flight, if any.
func (q *opQueue) Close() {
	q.once.Do(func() { close(q.done) })
	<-q.stopped
}
