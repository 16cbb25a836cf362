package wishlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartAdder interface {
	AddItem(ctx context.Context, product catalog.Product, quantity int) error
}

// Service manages one user's wishlist.
type Service interface {
	List(ctx context.Context) ([]catalog.Product, error)
	// Toggle likes product, or unlikes it when it is already saved. It
	// reports whether the product is on the wishlist afterwards.
	Toggle(ctx context.Context, product catalog.Product) (bool, error)
	// MoveToCart adds one unit of a saved product to the cart and drops it
	// from the wishlist.
	MoveToCart(ctx context.Context, productID int64) error
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Cart   cartAdder
	UserID string
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	tx     txRunner
	cart   cartAdder
	userID string
	logg   *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Cart == nil {
		return nil, fmt.Errorf("cart required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, fmt.Errorf("user id required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &service{repo: p.Repo, tx: p.Tx, cart: p.Cart, userID: p.UserID, logg: p.Logger}, nil
}

func (s *service) List(ctx context.Context) ([]catalog.Product, error) {
	list, err := s.repo.List(ctx, s.userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return list, nil
}

func (s *service) Toggle(ctx context.Context, product catalog.Product) (bool, error) {
	if product.ID == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var liked bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		removed, err := repo.Remove(ctx, s.userID, product.ID)
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
		liked = true
		return repo.Add(ctx, s.userID, product)
	})
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update wishlist")
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{"product_id": product.ID, "liked": liked}), "wishlist toggled")
	return liked, nil
}

func (s *service) MoveToCart(ctx context.Context, productID int64) error {
	product, err := s.repo.Find(ctx, s.userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not on the wishlist").
			WithDetails(map[string]any{"product_id": productID})
	}
	if err := s.cart.AddItem(ctx, *product, 1); err != nil {
		return err
	}
	if _, err := s.repo.Remove(ctx, s.userID, productID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "product_id", productID), "wishlist entry not removed after move", err)
	}
	return nil
}
