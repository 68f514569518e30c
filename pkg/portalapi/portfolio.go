package portalapi

import (
	"context"
	"net/http"
)

// GetPortfolio retrieves the authenticated client's portfolio.
func (c *Client) GetPortfolio(ctx context.Context) (*Portfolio, error) {
	var portfolio Portfolio
	if err := c.getJSON(ctx, "/portal/portfolio", &portfolio); err != nil {
		return nil, err
	}
	if portfolio.Positions == nil {
		portfolio.Positions = []Position{}
	}
	return &portfolio, nil
}

// SimulatePortfolio asks the server to revalue the portfolio against
// hypothetical prices. Nothing is persisted server-side.
func (c *Client) SimulatePortfolio(ctx context.Context, overrides PriceOverrideSet) (*Portfolio, error) {
	if len(overrides.Overrides) == 0 {
		return nil, Preconditionf("at least one price override is required")
	}

	var portfolio Portfolio
	if err := c.sendJSON(ctx, http.MethodPost, "/portal/portfolio/simulate", overrides, &portfolio); err != nil {
		return nil, err
	}
	if portfolio.Positions == nil {
		portfolio.Positions = []Position{}
	}
	return &portfolio, nil
}
