// Package account builds the per-tab views of the account page.
package account

import (
	"context"
	"fmt"

	"techzone-storefront/internal/domain"
)

// View is the payload for one account tab. Exactly one section is set.
type View struct {
	Tab           domain.AccountTab     `json:"tab"`
	Tabs          []domain.AccountTab   `json:"tabs"`
	Profile       *domain.Customer      `json:"profile,omitempty"`
	Security      *SecuritySection      `json:"security,omitempty"`
	Notifications *NotificationSettings `json:"notifications,omitempty"`
	List          *ListSection          `json:"list,omitempty"`
}

type SecuritySection struct {
	Email             string `json:"email"`
	MinPasswordLength int    `json:"minPasswordLength"`
}

type NotificationSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
	OrderUpdates       bool `json:"orderUpdates"`
	Promotions         bool `json:"promotions"`
	Newsletter         bool `json:"newsletter"`
}

// DefaultNotifications is what every new account starts with.
func DefaultNotifications() NotificationSettings {
	return NotificationSettings{
		EmailNotifications: true,
		OrderUpdates:       true,
		Promotions:         true,
		Newsletter:         false,
	}
}

// ListSection backs the collection tabs. Items is always non-nil.
type ListSection struct {
	Title      string `json:"title"`
	EmptyLabel string `json:"emptyLabel"`
	Items      []any  `json:"items"`
}

type Service struct {
	minPasswordLength int
}

func New() *Service {
	return &Service{minPasswordLength: 8}
}

// View renders tab for customer.
func (s *Service) View(_ context.Context, customer *domain.Customer, tab domain.AccountTab) (View, error) {
	if customer == nil {
		return View{}, fmt.Errorf("%w: customer required", domain.ErrInvalidInput)
	}
	v := View{Tab: tab, Tabs: domain.AccountTabs()}
	switch tab {
	case domain.AccountTabProfile:
		v.Profile = customer
	case domain.AccountTabSecurity:
		v.Security = &SecuritySection{Email: customer.Email, MinPasswordLength: s.minPasswordLength}
	case domain.AccountTabNotifications:
		n := DefaultNotifications()
		v.Notifications = &n
	case domain.AccountTabOrders:
		v.List = emptyList("Mis Pedidos", "No tienes pedidos aún")
	case domain.AccountTabWishlist:
		v.List = emptyList("Lista de Deseos", "Tu lista de deseos está vacía")
	case domain.AccountTabAddresses:
		v.List = emptyList("Mis Direcciones", "No tienes direcciones guardadas")
	case domain.AccountTabPayment:
		v.List = emptyList("Métodos de Pago", "No tienes métodos de pago guardados")
	default:
		return View{}, fmt.Errorf("%w: unknown account tab %d", domain.ErrInvalidInput, int(tab))
	}
	return v, nil
}

func emptyList(title, label string) *ListSection {
	return &ListSection{Title: title, EmptyLabel: label, Items: []any{}}
}
