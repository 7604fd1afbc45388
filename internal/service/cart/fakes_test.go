package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"techzone-storefront/internal/domain"
)

var errUnavailable = errors.New("backend unavailable")

// memoryRemote is an in-memory remote item store that records every call.
type memoryRemote struct {
	mu      sync.Mutex
	rows    map[string][]domain.Item
	calls   []string
	listErr error
	// outcome overrides the result of Upsert/Delete for a product id.
	outcome func(productID string, attempt int) domain.WriteOutcome
	tries   map[string]int
	// block, when set, is received from before each write.
	block chan struct{}
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{rows: make(map[string][]domain.Item), tries: make(map[string]int)}
}

func (r *memoryRemote) seed(userID string, items ...domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[userID] = append(r.rows[userID], items...)
}

func (r *memoryRemote) List(_ context.Context, userID string) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "list")
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Item, len(r.rows[userID]))
	copy(out, r.rows[userID])
	return out, nil
}

func (r *memoryRemote) wait() {
	if r.block != nil {
		<-r.block
	}
}

func (r *memoryRemote) override(productID string) (domain.WriteOutcome, bool) {
	if r.outcome == nil {
		return domain.WriteOutcome{}, false
	}
	attempt := r.tries[productID]
	r.tries[productID]++
	out := r.outcome(productID, attempt)
	return out, !out.OK()
}

func (r *memoryRemote) Upsert(_ context.Context, userID, productID string, quantity int) domain.WriteOutcome {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "upsert:"+productID)
	if out, failed := r.override(productID); failed {
		return out
	}
	rows := r.rows[userID]
	for i := range rows {
		if rows[i].ProductID == productID {
			rows[i].Quantity = quantity
			return domain.Succeeded()
		}
	}
	r.rows[userID] = append(rows, domain.Item{ProductID: productID, Quantity: quantity})
	return domain.Succeeded()
}

func (r *memoryRemote) Delete(_ context.Context, userID, productID string) domain.WriteOutcome {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete:"+productID)
	if out, failed := r.override(productID); failed {
		return out
	}
	rows := r.rows[userID]
	for i := range rows {
		if rows[i].ProductID == productID {
			r.rows[userID] = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	return domain.Succeeded()
}

func (r *memoryRemote) DeleteAll(_ context.Context, userID string) domain.WriteOutcome {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete_all")
	delete(r.rows, userID)
	return domain.Succeeded()
}

// quantities returns the user's rows as productId -> quantity.
func (r *memoryRemote) quantities(userID string) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, it := range r.rows[userID] {
		out[it.ProductID] = it.Quantity
	}
	return out
}

func (r *memoryRemote) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type memoryCatalog map[string]domain.Product

func (c memoryCatalog) Product(_ context.Context, id string) (*domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func line(id string, qty int, price string) domain.CartLine {
	return domain.CartLine{
		ProductID:   id,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(price),
		DisplayName: "Product " + id,
	}
}

func quantities(lines []domain.CartLine) map[string]int {
	out := make(map[string]int, len(lines))
	for _, l := range lines {
		out[l.ProductID] = l.Quantity
	}
	return out
}

func testOptions() Options {
	return Options{Policy: WritePolicy{Retries: 2, Backoff: time.Millisecond, Timeout: time.Second}}
}
