package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
)

// DeviceStore is synchronous storage scoped to one browser/device. It never
// reports failures; implementations log and carry on.
type DeviceStore interface {
	Get() []domain.CartLine
	Set(lines []domain.CartLine)
}

// DeviceRepository persists the raw device blob.
type DeviceRepository interface {
	Load(ctx context.Context, deviceID string) ([]byte, error)
	Save(ctx context.Context, deviceID string, payload []byte) error
	Delete(ctx context.Context, deviceID string) error
}

type repoDeviceStore struct {
	repo     DeviceRepository
	deviceID string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDeviceStore binds repo to a single device. Each call is bounded by timeout.
func NewDeviceStore(repo DeviceRepository, deviceID string, timeout time.Duration, logger *zap.Logger) DeviceStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &repoDeviceStore{
		repo:     repo,
		deviceID: deviceID,
		timeout:  timeout,
		logger:   logging.OrNop(logger).With(zap.String("device_id", deviceID)),
	}
}

func (d *repoDeviceStore) Get() []domain.CartLine {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	blob, err := d.repo.Load(ctx, d.deviceID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			d.logger.Warn("device cart unreadable, starting empty", zap.Error(err))
		}
		return nil
	}
	lines, dropped, err := DecodeLines(blob)
	if err != nil {
		d.logger.Warn("device cart malformed, starting empty", zap.Error(err))
		return nil
	}
	if dropped > 0 {
		d.logger.Warn("dropped invalid device cart lines", zap.Int("dropped", dropped))
	}
	return lines
}

func (d *repoDeviceStore) Set(lines []domain.CartLine) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if len(lines) == 0 {
		if err := d.repo.Delete(ctx, d.deviceID); err != nil {
			d.logger.Warn("clear device cart", zap.Error(err))
		}
		return
	}
	blob, err := EncodeLines(lines)
	if err != nil {
		d.logger.Error("encode device cart", zap.Error(err))
		return
	}
	if err := d.repo.Save(ctx, d.deviceID, blob); err != nil {
		d.logger.Warn("save device cart", zap.Error(err))
	}
}

// EncodeLines serializes lines into the device blob format: a JSON array of
// cart lines with decimal prices encoded as strings.
func EncodeLines(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return json.Marshal(lines)
}

// DecodeLines parses a device blob. Lines with an empty product id, a
// quantity below 1 or a negative price are dropped and counted; repeated
// product ids are folded into one line.
func DecodeLines(blob []byte) ([]domain.CartLine, int, error) {
	var raw []domain.CartLine
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode device cart: %w", err)
	}
	var (
		out     []domain.CartLine
		dropped int
	)
	for _, line := range raw {
		if line.ProductID == "" || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			dropped++
			continue
		}
		if i := indexOf(out, line.ProductID); i >= 0 {
			out[i].Quantity = domain.AddQuantity(out[i].Quantity, line.Quantity)
			continue
		}
		line.Quantity = domain.ClampQuantity(line.Quantity)
		out = append(out, line)
	}
	return out, dropped, nil
}

// MemoryDeviceStore keeps the device cart in process memory.
type MemoryDeviceStore struct {
	mu    sync.Mutex
	lines []domain.CartLine
	saves int
}

func NewMemoryDeviceStore(lines ...domain.CartLine) *MemoryDeviceStore {
	return &MemoryDeviceStore{lines: cloneLines(lines)}
}

func (m *MemoryDeviceStore) Get() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneLines(m.lines)
}

func (m *MemoryDeviceStore) Set(lines []domain.CartLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = cloneLines(lines)
	m.saves++
}

// Saves reports how many times Set was called.
func (m *MemoryDeviceStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
