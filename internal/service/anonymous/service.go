// Package anonymous issues the device ids that key anonymous carts.
package anonymous

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidDevice = errors.New("invalid device id")

type Service struct {
	newID func() uuid.UUID
}

func New() *Service {
	return &Service{newID: uuid.New}
}

// Issue returns a fresh random device id.
func (s *Service) Issue() string {
	return s.newID().String()
}

// Parse normalizes a client supplied device id.
func (s *Service) Parse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDevice
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return "", ErrInvalidDevice
	}
	return id.String(), nil
}
