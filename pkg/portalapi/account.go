package portalapi

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// GetAccount retrieves the authenticated client's cash account.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.getJSON(ctx, "/portal/account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetProfile retrieves the authenticated client's profile.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.getJSON(ctx, "/portal/profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Deposit credits the client's account.
func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal) (*BalanceResult, error) {
	return c.changeBalance(ctx, "/portal/deposit", amount)
}

// Withdraw debits the client's account. The server rejects withdrawals above
// the balance.
func (c *Client) Withdraw(ctx context.Context, amount decimal.Decimal) (*BalanceResult, error) {
	return c.changeBalance(ctx, "/portal/withdraw", amount)
}

func (c *Client) changeBalance(ctx context.Context, path string, amount decimal.Decimal) (*BalanceResult, error) {
	if !amount.IsPositive() {
		return nil, Preconditionf("amount must be positive")
	}

	var result BalanceResult
	if err := c.sendJSON(ctx, http.MethodPost, path, BalanceChange{Amount: amount}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
