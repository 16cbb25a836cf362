package address

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
	"github.com/angelmondragon/storefront-checkout/pkg/validators"
	"gorm.io/gorm"
)

// DefaultCapacity bounds how many addresses a book keeps.
const DefaultCapacity = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Book is one user's saved addresses, most recently used first.
type Book interface {
	List(ctx context.Context) ([]types.Address, error)
	// MostRecent returns the first entry, or nil when the book is empty.
	MostRecent(ctx context.Context) (*types.Address, error)
	// Remember validates addr and moves it to the front, dropping duplicates
	// and entries beyond capacity.
	Remember(ctx context.Context, addr types.Address) (types.Address, error)
	Remove(ctx context.Context, index int) error
}

type book struct {
	repo     Repository
	tx       txRunner
	userID   string
	capacity int
}

// NewBook builds the address book for userID.
func NewBook(repo Repository, tx txRunner, userID string) (Book, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id required")
	}
	return &book{repo: repo, tx: tx, userID: userID, capacity: DefaultCapacity}, nil
}

// Validate normalizes addr and checks every field. Failures carry
// CodeInvalidAddress with per-field details.
func Validate(addr types.Address) (types.Address, error) {
	normalized := addr.Normalize()
	if err := validators.Struct(pkgerrors.CodeInvalidAddress, normalized); err != nil {
		return types.Address{}, err
	}
	return normalized, nil
}

func (b *book) List(ctx context.Context) ([]types.Address, error) {
	list, err := b.repo.Load(ctx, b.userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address book")
	}
	return list, nil
}

func (b *book) MostRecent(ctx context.Context) (*types.Address, error) {
	list, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	first := list[0]
	return &first, nil
}

func (b *book) Remember(ctx context.Context, addr types.Address) (types.Address, error) {
	normalized, err := Validate(addr)
	if err != nil {
		return types.Address{}, err
	}
	err = b.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := b.repo.WithTx(tx)
		list, err := repo.Load(ctx, b.userID)
		if err != nil {
			return err
		}
		next := make([]types.Address, 0, len(list)+1)
		next = append(next, normalized)
		for _, existing := range list {
			if existing == normalized {
				continue
			}
			next = append(next, existing)
		}
		if len(next) > b.capacity {
			next = next[:b.capacity]
		}
		return repo.Save(ctx, b.userID, next)
	})
	if err != nil {
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address book")
	}
	return normalized, nil
}

func (b *book) Remove(ctx context.Context, index int) error {
	return b.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := b.repo.WithTx(tx)
		list, err := repo.Load(ctx, b.userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address book")
		}
		if index < 0 || index >= len(list) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").
				WithDetails(map[string]any{"index": index})
		}
		next := append(list[:index:index], list[index+1:]...)
		if err := repo.Save(ctx, b.userID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save address book")
		}
		return nil
	})
}
