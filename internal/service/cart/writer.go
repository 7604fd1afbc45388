package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
)

// RemoteItemStore is the durable per-user item set. Writes report a
// classified outcome rather than an error.
type RemoteItemStore interface {
	List(ctx context.Context, userID string) ([]domain.Item, error)
	Upsert(ctx context.Context, userID, productID string, quantity int) domain.WriteOutcome
	Delete(ctx context.Context, userID, productID string) domain.WriteOutcome
	DeleteAll(ctx context.Context, userID string) domain.WriteOutcome
}

type opKind int

const (
	opUpsert opKind = iota
	opDelete
	opDeleteAll
	opBarrier
)

func (k opKind) String() string {
	switch k {
	case opUpsert:
		return "upsert"
	case opDelete:
		return "delete"
	case opDeleteAll:
		return "delete_all"
	default:
		return "barrier"
	}
}

type remoteOp struct {
	kind      opKind
	userID    string
	productID string
	quantity  int
	done      chan struct{}
}

// WritePolicy decides what happens to a failed remote write.
type WritePolicy struct {
	// Retries is the number of extra attempts for retriable failures.
	Retries int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
	// Timeout bounds a single attempt.
	Timeout time.Duration
}

func (p WritePolicy) withDefaults() WritePolicy {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = 200 * time.Millisecond
	}
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	return p
}

// writeQueue is a FIFO of remote writes drained by a single worker, so writes
// for one store reach the backend in the order they were issued.
type writeQueue struct {
	remote RemoteItemStore
	policy WritePolicy
	logger *zap.Logger

	mu     sync.Mutex
	ops    []remoteOp
	closed bool
	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

func newWriteQueue(remote RemoteItemStore, policy WritePolicy, logger *zap.Logger) *writeQueue {
	q := &writeQueue{
		remote: remote,
		policy: policy.withDefaults(),
		logger: logger,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) enqueue(op remoteOp) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		if op.done != nil {
			close(op.done)
		}
		return false
	}
	q.ops = append(q.ops, op)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// flush blocks until every write enqueued before the call has been attempted.
func (q *writeQueue) flush(ctx context.Context) error {
	barrier := remoteOp{kind: opBarrier, done: make(chan struct{})}
	q.enqueue(barrier)
	select {
	case <-barrier.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains pending writes and stops the worker.
func (q *writeQueue) close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.stop)
	}
	q.mu.Unlock()
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *writeQueue) run() {
	defer close(q.done)
	for {
		op, ok := q.next()
		if !ok {
			return
		}
		if op.kind == opBarrier {
			close(op.done)
			continue
		}
		q.execute(context.Background(), op)
	}
}

// next returns the head of the queue, waiting for work. After close it keeps
// returning queued ops until the queue is empty.
func (q *writeQueue) next() (remoteOp, bool) {
	for {
		q.mu.Lock()
		if len(q.ops) > 0 {
			op := q.ops[0]
			q.ops[0] = remoteOp{}
			q.ops = q.ops[1:]
			q.mu.Unlock()
			return op, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return remoteOp{}, false
		}
		select {
		case <-q.signal:
		case <-q.stop:
		}
	}
}

// execute applies the outcome policy: retriable failures are retried with
// linear backoff, permanent failures and exhausted retries are logged and dropped.
func (q *writeQueue) execute(ctx context.Context, op remoteOp) domain.WriteOutcome {
	fields := []zap.Field{
		zap.String("op", op.kind.String()),
		zap.String("user_id", op.userID),
		zap.String("product_id", op.productID),
		zap.Int("quantity", op.quantity),
	}
	for attempt := 0; ; attempt++ {
		out := q.attempt(ctx, op)
		switch out.Kind {
		case domain.OutcomeSuccess:
			q.logger.Debug("remote write applied", fields...)
			return out
		case domain.OutcomePermanent:
			q.logger.Error("remote write rejected, dropping", append(fields, zap.Error(out.Err))...)
			return out
		}
		if attempt >= q.policy.Retries {
			q.logger.Warn("remote write failed, retries exhausted", append(fields, zap.Int("attempts", attempt+1), zap.Error(out.Err))...)
			return out
		}
		q.logger.Info("remote write failed, retrying", append(fields, zap.Int("attempt", attempt+1), zap.Error(out.Err))...)
		timer := time.NewTimer(q.policy.Backoff * time.Duration(attempt+1))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return domain.Retriable(ctx.Err())
		}
	}
}

func (q *writeQueue) attempt(ctx context.Context, op remoteOp) domain.WriteOutcome {
	ctx, cancel := context.WithTimeout(ctx, q.policy.Timeout)
	defer cancel()
	switch op.kind {
	case opUpsert:
		return q.remote.Upsert(ctx, op.userID, op.productID, op.quantity)
	case opDelete:
		return q.remote.Delete(ctx, op.userID, op.productID)
	case opDeleteAll:
		return q.remote.DeleteAll(ctx, op.userID)
	default:
		return domain.Succeeded()
	}
}
