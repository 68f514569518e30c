package cmd

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/chicoin/internal/viewmodel"
	"github.com/jonandersen/chicoin/pkg/portalapi"
)

func TestPortfolioCmd_Table(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asClient(t, server.URL)

	out, err := execute(newPortfolioCmd(&opts))
	require.NoError(t, err)

	for _, col := range viewmodel.Columns {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "PETR4")
	assert.Contains(t, out, "Petrobras PN")
	assert.Contains(t, out, "R$385,00")
	assert.Contains(t, out, "Total: R$385,00  Result: +R$35,00")
	assert.NotContains(t, out, viewmodel.SimulatedTag)
}

func TestPortfolioCmd_EmptyShowsPlaceholder(t *testing.T) {
	server, store := newTestSandbox(t)
	_, err := store.AddClient(portalapi.ClientDraft{
		Name: "Bruno Lima", Email: "bruno@example.com", Document: "987.654.321-00", Password: "pw",
	})
	require.NoError(t, err)
	opts := loggedIn(t, server.URL, "bruno@example.com", "pw")

	out, err := execute(newPortfolioCmd(&opts))
	require.NoError(t, err)
	assert.Contains(t, out, viewmodel.PlaceholderText)
	assert.Contains(t, out, "Total: R$0,00")
}

func TestPortfolioCmd_JSON(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asClient(t, server.URL)
	opts.jsonMode = true

	out, err := execute(newPortfolioCmd(&opts))
	require.NoError(t, err)

	var got struct {
		Mode            string               `json:"mode"`
		Positions       []portalapi.Position `json:"positions"`
		MarketValue     decimal.Decimal      `json:"marketValue"`
		FinancialResult decimal.Decimal      `json:"financialResult"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "live", got.Mode)
	require.Len(t, got.Positions, 1)
	assert.True(t, got.MarketValue.Equal(decimal.NewFromInt(385)))
	assert.True(t, got.FinancialResult.Equal(decimal.NewFromInt(35)))
}

func TestPortfolioCmd_RequiresClient(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asAdvisor(t, server.URL)

	_, err := execute(newPortfolioCmd(&opts))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only available to clients")
}

func TestPortfolioCmd_ExpiredSession(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asClient(t, server.URL)
	opts.session.Token = "bogus"

	_, err := execute(newPortfolioCmd(&opts))
	require.Error(t, err)
	assert.Equal(t, "failed to fetch portfolio: Session expired. Log in again. Run 'chicoin login'.", err.Error())
}

func TestSimulateCmd(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asClient(t, server.URL)

	out, err := execute(newSimulateCmd(&opts), "--price", "1=50")
	require.NoError(t, err)

	assert.Contains(t, out, "Simulated values. Nothing was saved.")
	assert.Contains(t, out, viewmodel.SimulatedTag+" PETR4")
	assert.Contains(t, out, viewmodel.SimulatedTag+" Total: R$500,00  Result: +R$150,00")

	// Nothing persisted: the live portfolio still reads the old price.
	live, err := execute(newPortfolioCmd(&opts))
	require.NoError(t, err)
	assert.Contains(t, live, "Total: R$385,00")
}

func TestSimulateCmd_UnknownProduct(t *testing.T) {
	server, _ := newTestSandbox(t)
	opts := asClient(t, server.URL)

	_, err := execute(newSimulateCmd(&opts), "--price", "2=10")
	require.Error(t, err)
	assert.Equal(t, "simulation failed: product 2 is not in the portfolio", err.Error())
}

func TestParsePriceOverrides(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		want    map[int64]string
		wantErr string
	}{
		{name: "none", input: nil, want: map[int64]string{}},
		{name: "dot and comma", input: []string{"1=50.5", "3=12,25"}, want: map[int64]string{1: "50.5", 3: "12.25"}},
		{name: "zero is allowed", input: []string{"1=0"}, want: map[int64]string{1: "0"}},
		{name: "missing separator", input: []string{"1:50"}, wantErr: `invalid --price "1:50" (use PRODUCT_ID=PRICE)`},
		{name: "bad id", input: []string{"x=50"}, wantErr: `invalid product ID in --price "x=50"`},
		{name: "bad price", input: []string{"1=abc"}, wantErr: `invalid price in --price "1=abc"`},
		{name: "negative", input: []string{"1=-5"}, wantErr: "price for product 1 cannot be negative"},
		{name: "duplicate", input: []string{"1=5", "1=6"}, wantErr: "product 1 has more than one --price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePriceOverrides(tt.input)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for id, price := range tt.want {
				assert.True(t, got[id].Equal(decimal.RequireFromString(price)), "product %d", id)
			}
		})
	}
}
