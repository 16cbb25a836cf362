package wishlist

import (
	"context"

	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the products each user has liked.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// List returns the user's items in the order they were liked.
	List(ctx context.Context, userID string) ([]catalog.Product, error)
	Find(ctx context.Context, userID string, productID int64) (*catalog.Product, error)
	// Add ignores products the user already liked.
	Add(ctx context.Context, userID string, product catalog.Product) error
	// Remove reports whether an entry was deleted.
	Remove(ctx context.Context, userID string, productID int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, userID string) ([]catalog.Product, error) {
	var rows []models.WishlistItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProduct(row))
	}
	return out, nil
}

func (r *repository) Find(ctx context.Context, userID string, productID int64) (*catalog.Product, error) {
	var rows []models.WishlistItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	product := toProduct(rows[0])
	return &product, nil
}

func (r *repository) Add(ctx context.Context, userID string, product catalog.Product) error {
	row := models.WishlistItem{
		UserID:    userID,
		ProductID: product.ID,
		Title:     product.Title,
		Thumbnail: product.Thumbnail,
		Price:     product.Price,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

func (r *repository) Remove(ctx context.Context, userID string, productID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func toProduct(row models.WishlistItem) catalog.Product {
	return catalog.Product{
		ID:        row.ProductID,
		Title:     row.Title,
		Thumbnail: row.Thumbnail,
		Price:     row.Price,
	}
}
