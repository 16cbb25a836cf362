package wishlist

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	pizza = catalog.Product{ID: 1, Title: "Margherita", Thumbnail: "pizza.png", Price: 10.5, Tags: []string{"italian"}}
	salad = catalog.Product{ID: 2, Title: "Caesar Salad", Thumbnail: "salad.png", Price: 7.25}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.WishlistItem{}))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, userID string, store *cart.Store) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Tx:     db.Wrap(conn),
		Cart:   store,
		UserID: userID,
	})
	require.NoError(t, err)
	return svc
}

func TestToggleLikesAndUnlikes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newTestDB(t), "user-1", cart.NewStore(nil))

	liked, err := svc.Toggle(ctx, pizza)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = svc.Toggle(ctx, salad)
	require.NoError(t, err)
	assert.True(t, liked)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, "Margherita", list[0].Title)
	assert.Equal(t, 10.5, list[0].Price)
	assert.Equal(t, int64(2), list[1].ID)

	liked, err = svc.Toggle(ctx, pizza)
	require.NoError(t, err)
	assert.False(t, liked)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)
}

func TestToggleRejectsMissingProductID(t *testing.T) {
	svc := newTestService(t, newTestDB(t), "user-1", cart.NewStore(nil))
	_, err := svc.Toggle(context.Background(), catalog.Product{Title: "nameless"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRepositoryAddIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	require.NoError(t, repo.Add(ctx, "user-1", pizza))
	require.NoError(t, repo.Add(ctx, "user-1", pizza))

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	removed, err := repo.Remove(ctx, "user-1", salad.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestWishlistsAreUserScoped(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	ada := newTestService(t, conn, "ada", cart.NewStore(nil))
	grace := newTestService(t, conn, "grace", cart.NewStore(nil))

	_, err := ada.Toggle(ctx, pizza)
	require.NoError(t, err)
	liked, err := grace.Toggle(ctx, pizza)
	require.NoError(t, err)
	assert.True(t, liked)

	adaList, err := ada.List(ctx)
	require.NoError(t, err)
	graceList, err := grace.List(ctx)
	require.NoError(t, err)
	assert.Len(t, adaList, 1)
	assert.Len(t, graceList, 1)
}

func TestMoveToCart(t *testing.T) {
	ctx := context.Background()
	store := cart.NewStore(nil)
	svc := newTestService(t, newTestDB(t), "user-1", store)

	_, err := svc.Toggle(ctx, pizza)
	require.NoError(t, err)
	require.NoError(t, store.AddItem(ctx, pizza, 2))

	require.NoError(t, svc.MoveToCart(ctx, pizza.ID))

	items := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(1050), items[0].UnitPriceCents)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.MoveToCart(ctx, pizza.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 3, store.Snapshot()[0].Quantity)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	conn := newTestDB(t)
	_, err := NewService(ServiceParams{Tx: db.Wrap(conn), Cart: cart.NewStore(nil), UserID: "u"})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn), Cart: cart.NewStore(nil), UserID: "u"})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn), Tx: db.Wrap(conn), UserID: "u"})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: NewRepository(conn), Tx: db.Wrap(conn), Cart: cart.NewStore(nil), UserID: " "})
	assert.Error(t, err)
}
