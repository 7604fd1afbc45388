package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"techzone-storefront/internal/logging"
)

// DeviceFactory binds device storage to a device id.
type DeviceFactory func(deviceID string) DeviceStore

// Sessions owns one Store per device id for the lifetime of the process.
type Sessions struct {
	newDevice DeviceFactory
	remote    RemoteItemStore
	catalog   Catalog
	opts      Options
	logger    *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewSessions(newDevice DeviceFactory, remote RemoteItemStore, catalog Catalog, opts Options) *Sessions {
	opts.Logger = logging.OrNop(opts.Logger)
	return &Sessions{
		newDevice: newDevice,
		remote:    remote,
		catalog:   catalog,
		opts:      opts,
		logger:    opts.Logger,
		stores:    make(map[string]*Store),
	}
}

// Get returns the device's store, hydrating it from device storage on first use.
func (s *Sessions) Get(deviceID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[deviceID]; ok {
		st.touch()
		return st
	}
	opts := s.opts
	opts.Logger = s.logger.With(zap.String("device_id", deviceID))
	st := New(s.newDevice(deviceID), s.remote, s.catalog, opts)
	s.stores[deviceID] = st
	return st
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// OnSignIn runs the sign-in sync for the device's store.
func (s *Sessions) OnSignIn(ctx context.Context, deviceID, userID string) {
	res := s.Get(deviceID).SignIn(ctx, userID)
	s.logger.Debug("session acquired",
		zap.String("device_id", deviceID),
		zap.String("user_id", userID),
		zap.Stringer("result", res))
}

// OnSignOut resets the device's store. Devices without a store are ignored.
func (s *Sessions) OnSignOut(_ context.Context, deviceID string) {
	s.mu.Lock()
	st, ok := s.stores[deviceID]
	s.mu.Unlock()
	if !ok {
		return
	}
	st.SignOut()
}

// Evict closes stores idle for longer than idle. Stores that are syncing or
// have live subscribers are kept. It returns the number of evicted stores.
func (s *Sessions) Evict(ctx context.Context, idle time.Duration) int {
	cutoff := timeNow().Add(-idle)
	var victims []*Store

	s.mu.Lock()
	for id, st := range s.stores {
		last, busy := st.idleSince()
		if busy || last.After(cutoff) {
			continue
		}
		delete(s.stores, id)
		victims = append(victims, st)
	}
	s.mu.Unlock()

	for _, st := range victims {
		if err := st.Close(ctx); err != nil {
			s.logger.Warn("close evicted cart", zap.Error(err))
		}
	}
	if len(victims) > 0 {
		s.logger.Info("evicted idle carts", zap.Int("count", len(victims)))
	}
	return len(victims)
}

// Close drains every store's pending remote writes.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	stores := s.stores
	s.stores = make(map[string]*Store)
	s.mu.Unlock()

	var errs []error
	for _, st := range stores {
		if err := st.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
