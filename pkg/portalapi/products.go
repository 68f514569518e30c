package portalapi

import (
	"context"
	"net/http"
)

// ListProducts retrieves the product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// CreateProduct registers a new product (advisor only).
func (c *Client) CreateProduct(ctx context.Context, p NewProduct) (*Product, error) {
	if p.Ticker == "" || p.ProductName == "" {
		return nil, Preconditionf("ticker and product name are required")
	}
	if p.RiskLevel < 1 || p.RiskLevel > 5 {
		return nil, Preconditionf("risk level must be between 1 and 5")
	}
	if p.LastPrice.IsNegative() {
		return nil, Preconditionf("price cannot be negative")
	}

	var product Product
	if err := c.sendJSON(ctx, http.MethodPost, "/products", p, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
