package address

import (
	"context"

	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
	"gorm.io/gorm"
)

// Repository persists a user-scoped ordered list of addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Load(ctx context.Context, userID string) ([]types.Address, error)
	// Save replaces the stored list for userID.
	Save(ctx context.Context, userID string, list []types.Address) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an address book repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Load(ctx context.Context, userID string) ([]types.Address, error) {
	var entries []models.AddressBookEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	list := make([]types.Address, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry.Address)
	}
	return list, nil
}

func (r *repository) Save(ctx context.Context, userID string, list []types.Address) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Where("user_id = ?", userID).Delete(&models.AddressBookEntry{}).Error; err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}
	entries := make([]models.AddressBookEntry, 0, len(list))
	for i, addr := range list {
		entries = append(entries, models.AddressBookEntry{
			UserID:   userID,
			Position: i,
			Address:  addr,
		})
	}
	return conn.Create(&entries).Error
}
