package devicecart

import "context"

// Repository stores one opaque cart blob per device.
type Repository interface {
	Load(ctx context.Context, deviceID string) ([]byte, error)
	Save(ctx context.Context, deviceID string, payload []byte) error
	Delete(ctx context.Context, deviceID string) error
}
