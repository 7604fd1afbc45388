package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/service/account"
	"techzone-storefront/internal/service/anonymous"
	"techzone-storefront/internal/service/cart"
	customersvc "techzone-storefront/internal/service/customer"
)

type stubProductService struct {
	products []domain.Product
	err      error
	lastCats []string
}

func (s *stubProductService) List(_ context.Context, categories []string) ([]domain.Product, error) {
	s.lastCats = categories
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductService) Product(ctx context.Context, id string) (*domain.Product, error) {
	return s.Get(ctx, id)
}

type stubCategoryService struct {
	categories []domain.Category
	err        error
}

func (s *stubCategoryService) List(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

// stubCustomerService accepts the token "good" for its customer.
type stubCustomerService struct {
	customer   *domain.Customer
	loginErr   error
	signErr    error
	profileErr error
	listener   customersvc.SessionListener
	loggedOut  []string
}

func (s *stubCustomerService) Signup(_ context.Context, in customersvc.SignupInput) (*domain.Customer, error) {
	if s.signErr != nil {
		return nil, s.signErr
	}
	return &domain.Customer{ID: "cust-new", Email: in.Email, FullName: in.FullName}, nil
}

func (s *stubCustomerService) Login(ctx context.Context, deviceID, _, _ string) (*domain.Customer, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	if s.listener != nil {
		s.listener.OnSignIn(ctx, deviceID, s.customer.ID)
	}
	return s.customer, "good", nil
}

func (s *stubCustomerService) Logout(ctx context.Context, deviceID, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	if s.listener != nil {
		s.listener.OnSignOut(ctx, deviceID)
	}
	return nil
}

func (s *stubCustomerService) LookupByToken(_ context.Context, token string) (*domain.Customer, error) {
	if token != "good" || s.customer == nil {
		return nil, customersvc.ErrInvalidToken
	}
	return s.customer, nil
}

func (s *stubCustomerService) UpdateProfile(_ context.Context, _ string, update domain.ProfileUpdate) (*domain.Customer, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	clone := *s.customer
	update.Apply(&clone)
	return &clone, nil
}

func (s *stubCustomerService) ChangePassword(_ context.Context, _, current, _ string) error {
	if current != "Current1" {
		return customersvc.ErrInvalidCredentials
	}
	return nil
}

func (s *stubCustomerService) AccessTTLSeconds() int {
	return 3600
}

// memoryRemote is an in-memory remote item store.
type memoryRemote struct {
	mu   sync.Mutex
	rows map[string]map[string]int
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{rows: make(map[string]map[string]int)}
}

func (r *memoryRemote) List(_ context.Context, userID string) ([]domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Item
	for id, q := range r.rows[userID] {
		out = append(out, domain.Item{ProductID: id, Quantity: q})
	}
	return out, nil
}

func (r *memoryRemote) Upsert(_ context.Context, userID, productID string, quantity int) domain.WriteOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[userID] == nil {
		r.rows[userID] = make(map[string]int)
	}
	r.rows[userID][productID] = quantity
	return domain.Succeeded()
}

func (r *memoryRemote) Delete(_ context.Context, userID, productID string) domain.WriteOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows[userID], productID)
	return domain.Succeeded()
}

func (r *memoryRemote) DeleteAll(_ context.Context, userID string) domain.WriteOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, userID)
	return domain.Succeeded()
}

func (r *memoryRemote) quantities(userID string) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for k, v := range r.rows[userID] {
		out[k] = v
	}
	return out
}

type testEnv struct {
	router    *gin.Engine
	products  *stubProductService
	customers *stubCustomerService
	sessions  *cart.Sessions
	remote    *memoryRemote
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	products := &stubProductService{products: []domain.Product{
		{ID: "p-laptop", Name: "Laptop", Price: decimal.RequireFromString("1500.00"), Category: "Laptops"},
		{ID: "p-mouse", Name: "Mouse", Price: decimal.RequireFromString("20.50"), Category: "Accesorios"},
	}}
	remote := newMemoryRemote()
	sessions := cart.NewSessions(func(string) cart.DeviceStore { return cart.NewMemoryDeviceStore() }, remote, products, cart.Options{
		Policy: cart.WritePolicy{Retries: 1, Backoff: time.Millisecond, Timeout: time.Second},
	})
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })
	customers := &stubCustomerService{
		customer: &domain.Customer{ID: "cust-1", Email: "me@example.com", FullName: "Me"},
		listener: sessions,
	}
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		ProductSvc:  products,
		CategorySvc: &stubCategoryService{categories: []domain.Category{{ID: "c1", Name: "Laptops", Slug: "laptops"}}},
		CustomerSvc: customers,
		AccountSvc:  account.New(),
		Carts:       sessions,
		Devices:     anonymous.New(),
	})
	require.NoError(t, err)
	return &testEnv{router: router, products: products, customers: customers, sessions: sessions, remote: remote}
}

const testDevice = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

// do sends a request as testDevice. A non-empty token is sent as bearer.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(deviceHeader, testDevice)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type snapshotBody struct {
	State      string            `json:"state"`
	UserID     string            `json:"userId"`
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"totalItems"`
	TotalPrice string            `json:"totalPrice"`
	Empty      bool              `json:"empty"`
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	var snap snapshotBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap), rec.Body.String())
	return snap
}
