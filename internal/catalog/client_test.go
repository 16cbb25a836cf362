package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groceriesBody = `{"products":[
 {"id":1,"title":"Apple","price":1.99,"discountPercentage":10,"tags":["fruits"],"thumbnail":"a.png","category":"groceries"},
 {"id":2,"title":"Cola","price":2.5,"discountPercentage":0,"tags":["beverages"],"thumbnail":"c.png","category":"groceries"}
],"total":2}`

func TestFetchProductsByCategory(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(groceriesBody))
	}))
	defer srv.Close()

	client := NewClient(nil, WithBaseURL(srv.URL))
	products := client.FetchProductsByCategory(context.Background(), "groceries")

	assert.Equal(t, "/products/category/groceries", gotPath)
	require.Len(t, products, 2)
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(199), products[0].PriceCents())
	assert.Equal(t, []string{"fruits"}, products[0].Tags)
}

func TestFetchProductsByCategoryDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(nil, WithBaseURL(srv.URL))
	products := client.FetchProductsByCategory(context.Background(), "groceries")
	require.NotNil(t, products)
	assert.Empty(t, products)

	_, err := client.LookupCategory(context.Background(), "groceries")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestFetchProductsByCategoryMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":`))
	}))
	defer srv.Close()

	client := NewClient(nil, WithBaseURL(srv.URL))
	assert.Empty(t, client.FetchProductsByCategory(context.Background(), "groceries"))
}

func TestLookupCategoryRequiresCategory(t *testing.T) {
	client := NewClient(nil)
	_, err := client.LookupCategory(context.Background(), "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLookupCategoryCollapsesConcurrentCalls(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte(groceriesBody))
	}))
	defer srv.Close()

	client := NewClient(nil, WithBaseURL(srv.URL), WithTimeout(5*time.Second))

	var wg sync.WaitGroup
	results := make([][]Product, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = client.FetchProductsByCategory(context.Background(), "groceries")
		}(i)
	}
	// give every goroutine time to join the in-flight call
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	for _, products := range results {
		assert.Len(t, products, 2)
	}
}
