package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a delivery destination. Orders embed a copy so later edits to the
// address book never rewrite history.
type Address struct {
	Recipient  string `json:"recipient" validate:"required,max=120"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region" validate:"required,max=100"`
	PostalCode string `json:"postal_code" validate:"required,postal_code_loose"`
	Country    string `json:"country" validate:"required,len=2,alpha"`
	Phone      string `json:"phone" validate:"required,phone_loose"`
}

// Normalize trims whitespace and upper-cases the country code.
func (a Address) Normalize() Address {
	return Address{
		Recipient:  strings.TrimSpace(a.Recipient),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		Region:     strings.TrimSpace(a.Region),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// OneLine renders the address for confirmation screens and logs.
func (a Address) OneLine() string {
	return fmt.Sprintf("%s, %s, %s, %s %s, %s", a.Recipient, a.Street, a.City, a.Region, a.PostalCode, a.Country)
}

// Value stores the address as a JSON document.
func (a Address) Value() (driver.Value, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal: %w", err)
	}
	return string(payload), nil
}

// Scan decodes a JSON document produced by Value.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("address: unmarshal: %w", err)
	}
	return nil
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	case fmt.Stringer:
		return []byte(v.String()), true
	default:
		return nil, false
	}
}
