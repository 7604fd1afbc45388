package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const RoleCustomer = "customer"

// Customer is a registered shopper together with the profile fields shown on
// the account page.
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	BirthDate    *Date     `json:"birthDate,omitempty"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate lists every profile field that can be changed. Unset fields
// keep their stored value; cleared fields are written as NULL.
type ProfileUpdate struct {
	FullName  Optional[string] `json:"fullName"`
	Phone     Optional[string] `json:"phone"`
	BirthDate Optional[Date]   `json:"birthDate"`
	AvatarURL Optional[string] `json:"avatarUrl"`
}

func (u ProfileUpdate) Empty() bool {
	return !u.FullName.Present() && !u.Phone.Present() && !u.BirthDate.Present() && !u.AvatarURL.Present()
}

// Validate rejects updates that would blank the display name.
func (u ProfileUpdate) Validate() error {
	if u.FullName.IsNull() {
		return fmt.Errorf("%w: fullName cannot be cleared", ErrInvalidInput)
	}
	if name, ok := u.FullName.Value(); ok && strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: fullName cannot be blank", ErrInvalidInput)
	}
	return nil
}

// Apply writes the present fields onto c.
func (u ProfileUpdate) Apply(c *Customer) {
	if name, ok := u.FullName.Value(); ok {
		c.FullName = strings.TrimSpace(name)
	}
	if u.Phone.Present() {
		c.Phone = u.Phone.Ptr()
	}
	if u.BirthDate.Present() {
		c.BirthDate = u.BirthDate.Ptr()
	}
	if u.AvatarURL.Present() {
		c.AvatarURL = u.AvatarURL.Ptr()
	}
}

const dateLayout = "2006-01-02"

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
