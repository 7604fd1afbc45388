package domain

import (
	"fmt"
	"strings"
)

// AccountTab enumerates the sections of the account page.
type AccountTab int

const (
	AccountTabProfile AccountTab = iota
	AccountTabSecurity
	AccountTabNotifications
	AccountTabOrders
	AccountTabWishlist
	AccountTabAddresses
	AccountTabPayment
)

var accountTabNames = [...]string{
	AccountTabProfile:       "profile",
	AccountTabSecurity:      "security",
	AccountTabNotifications: "notifications",
	AccountTabOrders:        "orders",
	AccountTabWishlist:      "wishlist",
	AccountTabAddresses:     "addresses",
	AccountTabPayment:       "payment",
}

// AccountTabs returns every tab in display order.
func AccountTabs() []AccountTab {
	tabs := make([]AccountTab, len(accountTabNames))
	for i := range accountTabNames {
		tabs[i] = AccountTab(i)
	}
	return tabs
}

func (t AccountTab) String() string {
	if t < 0 || int(t) >= len(accountTabNames) {
		return fmt.Sprintf("AccountTab(%d)", int(t))
	}
	return accountTabNames[t]
}

// ParseAccountTab maps a URL segment to a tab. An empty segment selects the profile tab.
func ParseAccountTab(raw string) (AccountTab, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return AccountTabProfile, nil
	}
	for i, name := range accountTabNames {
		if name == key {
			return AccountTab(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown account tab %q", ErrInvalidInput, raw)
}

func (t AccountTab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *AccountTab) UnmarshalText(text []byte) error {
	parsed, err := ParseAccountTab(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
