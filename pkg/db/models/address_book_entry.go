package models

import (
	"time"

	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// AddressBookEntry stores one saved address. Position 0 is the most recent.
type AddressBookEntry struct {
	ID        int64         `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string        `gorm:"column:user_id;not null;index"`
	Position  int           `gorm:"column:position;not null"`
	Address   types.Address `gorm:"column:address;type:text;not null"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (AddressBookEntry) TableName() string {
	return "address_book_entries"
}
