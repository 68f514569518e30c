package portalapi

import (
	"context"
	"net/http"
)

// CreateOrder submits a buy order. The request is sent exactly once.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if req.PortfolioID == 0 {
		return nil, Preconditionf("portfolioID is required")
	}
	if req.ProductID == 0 {
		return nil, Preconditionf("productID is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, Preconditionf("quantity must be positive")
	}
	if !req.UnitPrice.IsPositive() {
		return nil, Preconditionf("unit price must be positive")
	}
	if req.OrderType == "" {
		req.OrderType = OrderTypeBuy
	}

	var result OrderResult
	if err := c.sendJSON(ctx, http.MethodPost, "/orders", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
