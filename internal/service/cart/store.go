// Package cart owns the shopping cart of one browsing device. A Store keeps
// the authoritative in-memory lines and persists them to the device while
// anonymous and to the per-user remote item store once a session is bound.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
)

// State is the session binding of a Store.
type State int

const (
	StateAnonymous State = iota
	StateSyncing
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateSyncing:
		return "syncing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Catalog resolves product metadata for lines that only exist remotely.
type Catalog interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
}

// Snapshot is an immutable view of a Store.
type Snapshot struct {
	State      State             `json:"state"`
	UserID     string            `json:"userId,omitempty"`
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"totalItems"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	Empty      bool              `json:"empty"`
}

type Options struct {
	Logger *zap.Logger
	Policy WritePolicy
	// SyncTimeout bounds catalog lookups and write-back during sign-in.
	SyncTimeout time.Duration
}

// mutation is a cart operation. apply returns the next lines and the product
// ids whose remote row must be rewritten; clearAll replaces per-id writes
// with a single deleteAll.
type mutation struct {
	name     string
	apply    func(lines []domain.CartLine) ([]domain.CartLine, []string)
	clearAll bool
}

// deferredOp is a mutation made while syncing, with the ids it touched.
type deferredOp struct {
	m       mutation
	touched []string
}

var timeNow = time.Now

type Store struct {
	device      DeviceStore
	remote      RemoteItemStore
	catalog     Catalog
	queue       *writeQueue
	logger      *zap.Logger
	syncTimeout time.Duration

	mu    sync.Mutex
	state State
	// syncing is set for the whole run of SignIn, even after a sign-out
	// has moved the state back to anonymous.
	syncing  bool
	userID   string
	lines    []domain.CartLine
	deferred []deferredOp
	// unmerged holds device lines whose write-back failed on sign-in.
	unmerged []domain.CartLine
	// epoch changes on every session transition so an in-flight sync can
	// detect that its result is stale.
	epoch      uint64
	subs       map[int]chan Snapshot
	nextSub    int
	lastActive time.Time
	closed     bool
}

// New hydrates a Store from the device and starts its remote write worker.
func New(device DeviceStore, remote RemoteItemStore, catalog Catalog, opts Options) *Store {
	logger := logging.OrNop(opts.Logger)
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 10 * time.Second
	}
	return &Store{
		device:      device,
		remote:      remote,
		catalog:     catalog,
		queue:       newWriteQueue(remote, opts.Policy, logger),
		logger:      logger,
		syncTimeout: opts.SyncTimeout,
		state:       StateAnonymous,
		lines:       device.Get(),
		subs:        make(map[int]chan Snapshot),
		lastActive:  timeNow(),
	}
}

// AddItem accumulates into an existing line or appends a new one. Quantities
// below 1 count as 1 and sums saturate at domain.MaxQuantity.
func (s *Store) AddItem(line domain.CartLine) {
	if line.ProductID == "" {
		s.logger.Warn("ignoring cart line without product id")
		return
	}
	line.Quantity = domain.ClampQuantity(line.Quantity)
	s.mutate(mutation{
		name: "add_item",
		apply: func(lines []domain.CartLine) ([]domain.CartLine, []string) {
			if i := indexOf(lines, line.ProductID); i >= 0 {
				lines[i].Quantity = domain.AddQuantity(lines[i].Quantity, line.Quantity)
				return lines, []string{line.ProductID}
			}
			return append(lines, line), []string{line.ProductID}
		},
	})
}

// UpdateQuantity sets the quantity to old+delta, kept within
// [1, domain.MaxQuantity]. Unknown ids are ignored.
func (s *Store) UpdateQuantity(productID string, delta int) {
	s.mutate(mutation{
		name: "update_quantity",
		apply: func(lines []domain.CartLine) ([]domain.CartLine, []string) {
			i := indexOf(lines, productID)
			if i < 0 {
				return lines, nil
			}
			if delta > 0 {
				lines[i].Quantity = domain.AddQuantity(lines[i].Quantity, delta)
			} else {
				lines[i].Quantity = domain.ClampQuantity(lines[i].Quantity + delta)
			}
			return lines, []string{productID}
		},
	})
}

// RemoveItem drops the line if present.
func (s *Store) RemoveItem(productID string) {
	s.mutate(mutation{
		name: "remove_item",
		apply: func(lines []domain.CartLine) ([]domain.CartLine, []string) {
			i := indexOf(lines, productID)
			if i < 0 {
				return lines, nil
			}
			return append(lines[:i], lines[i+1:]...), []string{productID}
		},
	})
}

func (s *Store) EmptyCart() {
	s.mutate(mutation{
		name: "empty_cart",
		apply: func([]domain.CartLine) ([]domain.CartLine, []string) {
			return nil, nil
		},
		clearAll: true,
	})
}

func (s *Store) mutate(m mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = timeNow()
	touched := s.applyLocked(m)
	switch s.state {
	case StateAnonymous:
		s.device.Set(s.lines)
	case StateSyncing:
		s.deferred = append(s.deferred, deferredOp{m: m, touched: touched})
	case StateAuthenticated:
		s.enqueueLocked(touched, m.clearAll)
	}
	s.logger.Debug("cart mutated",
		zap.String("op", m.name),
		zap.Stringer("state", s.state),
		zap.Int("lines", len(s.lines)))
	s.publishLocked()
}

func (s *Store) applyLocked(m mutation) []string {
	next, touched := m.apply(cloneLines(s.lines))
	s.lines = next
	return touched
}

// enqueueLocked issues the remote writes that bring the user's rows in line
// with the current quantities of the touched products.
func (s *Store) enqueueLocked(touched []string, clearAll bool) {
	if clearAll {
		s.issueLocked(remoteOp{kind: opDeleteAll, userID: s.userID})
	}
	for _, id := range touched {
		if i := indexOf(s.lines, id); i >= 0 {
			s.issueLocked(remoteOp{kind: opUpsert, userID: s.userID, productID: id, quantity: s.lines[i].Quantity})
			continue
		}
		s.issueLocked(remoteOp{kind: opDelete, userID: s.userID, productID: id})
	}
}

// issueLocked hands op to the write queue. A closed store has no worker, so
// the write is logged and dropped.
func (s *Store) issueLocked(op remoteOp) {
	if s.queue.enqueue(op) {
		return
	}
	s.logger.Warn("remote write dropped, cart closed",
		zap.String("op", op.kind.String()),
		zap.String("user_id", op.userID),
		zap.String("product_id", op.productID),
		zap.Int("quantity", op.quantity))
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.lines)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.lines)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID is the bound user, empty while anonymous.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	lines := cloneLines(s.lines)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return Snapshot{
		State:      s.state,
		UserID:     s.userID,
		Lines:      lines,
		TotalItems: totalItems(s.lines),
		TotalPrice: totalPrice(s.lines),
		Empty:      len(s.lines) == 0,
	}
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one. Slow readers only see the newest snapshot. The returned
// func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Flush waits until every remote write issued so far has been attempted.
func (s *Store) Flush(ctx context.Context) error {
	return s.queue.flush(ctx)
}

// Close drains pending remote writes and closes every subscription.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()
	return s.queue.close(ctx)
}

// touch marks the store as in use.
func (s *Store) touch() {
	s.mu.Lock()
	s.lastActive = timeNow()
	s.mu.Unlock()
}

// idleSince reports the last use of the store and whether it is busy: a sync
// is running or a subscriber is still watching.
func (s *Store) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.syncing || len(s.subs) > 0
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i := range lines {
		if lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out
}

func totalItems(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalPrice(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}
