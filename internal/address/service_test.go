package address

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestBook(t *testing.T, userID string) (Book, Repository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AddressBookEntry{}))

	repo := NewRepository(conn)
	book, err := NewBook(repo, db.Wrap(conn), userID)
	require.NoError(t, err)
	return book, repo
}

func homeAddress() types.Address {
	return types.Address{
		Recipient:  "Ada Lovelace",
		Street:     "12 Analytical Way",
		City:       "London",
		Region:     "Greater London",
		PostalCode: "NW1 6XE",
		Country:    "gb",
		Phone:      "+44 20 7946 0958",
	}
}

func workAddress() types.Address {
	return types.Address{
		Recipient:  "Ada Lovelace",
		Street:     "1 Engine Row",
		City:       "Manchester",
		Region:     "Lancashire",
		PostalCode: "M1 1AE",
		Country:    "GB",
		Phone:      "+44 161 496 0000",
	}
}

func TestMostRecentOnEmptyBook(t *testing.T) {
	book, _ := newTestBook(t, "user-1")
	got, err := book.MostRecent(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRememberMovesAddressToFront(t *testing.T) {
	ctx := context.Background()
	book, _ := newTestBook(t, "user-1")

	home, err := book.Remember(ctx, homeAddress())
	require.NoError(t, err)
	assert.Equal(t, "GB", home.Country)

	_, err = book.Remember(ctx, workAddress())
	require.NoError(t, err)
	_, err = book.Remember(ctx, homeAddress())
	require.NoError(t, err)

	list, err := book.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, home, list[0])
	assert.Equal(t, "Manchester", list[1].City)

	recent, err := book.MostRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, home, *recent)
}

func TestRememberRejectsInvalidAddress(t *testing.T) {
	ctx := context.Background()
	book, _ := newTestBook(t, "user-1")

	addr := homeAddress()
	addr.Street = "   "
	_, err := book.Remember(ctx, addr)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidAddress))

	list, err := book.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRememberCapsBook(t *testing.T) {
	ctx := context.Background()
	book, _ := newTestBook(t, "user-1")

	for i := 0; i < DefaultCapacity+3; i++ {
		addr := homeAddress()
		addr.Street = fmt.Sprintf("%d Analytical Way", i+1)
		_, err := book.Remember(ctx, addr)
		require.NoError(t, err)
	}

	list, err := book.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, DefaultCapacity)
	assert.Equal(t, fmt.Sprintf("%d Analytical Way", DefaultCapacity+3), list[0].Street)
}

func TestBooksAreUserScoped(t *testing.T) {
	ctx := context.Background()
	book, repo := newTestBook(t, "user-1")
	_, err := book.Remember(ctx, homeAddress())
	require.NoError(t, err)

	other, err := repo.Load(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	book, _ := newTestBook(t, "user-1")
	_, err := book.Remember(ctx, homeAddress())
	require.NoError(t, err)
	_, err = book.Remember(ctx, workAddress())
	require.NoError(t, err)

	require.NoError(t, book.Remove(ctx, 0))
	list, err := book.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "London", list[0].City)

	err = book.Remove(ctx, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewBookValidatesDependencies(t *testing.T) {
	_, err := NewBook(nil, nil, "user")
	assert.Error(t, err)
}
