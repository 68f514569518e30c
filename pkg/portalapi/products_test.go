package portalapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"productId":1,"ticker":"PETR4","productName":"Petrobras PN","assetClass":"equity","riskLevel":4,"issuer":"Petrobras","lastPrice":"38.50"}
		]`))
	}))
	defer server.Close()

	products, err := NewClient(server.URL, "t").ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "PETR4", products[0].Ticker)
	assert.Equal(t, 4, products[0].RiskLevel)
	assert.Equal(t, "38.5", products[0].LastPrice.String())
}

func TestClient_ListProducts_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	products, err := NewClient(server.URL, "t").ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_CreateProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"productId":9,"ticker":"TSLA34","productName":"Tesla BDR","assetClass":"bdr","riskLevel":5,"lastPrice":"0"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")

	product, err := client.CreateProduct(context.Background(), NewProduct{
		Ticker: "TSLA34", ProductName: "Tesla BDR", AssetClass: "bdr", RiskLevel: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), product.ProductID)

	_, err = client.CreateProduct(context.Background(), NewProduct{Ticker: "X", ProductName: "Y", RiskLevel: 9})
	require.Error(t, err)
	assert.Equal(t, KindPrecondition, KindOf(err))
}
