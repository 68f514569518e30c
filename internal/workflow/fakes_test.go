package workflow

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jonandersen/chicoin/pkg/portalapi"
)

// fakePortal records calls and returns canned responses.
type fakePortal struct {
	portfolio    *portalapi.Portfolio
	portfolioErr error
	orderResult  *portalapi.OrderResult
	orderErr     error
	simulated    *portalapi.Portfolio
	simulateErr  error

	portfolioCalls int
	orders         []portalapi.OrderRequest
	simulations    []portalapi.PriceOverrideSet
}

func (f *fakePortal) GetPortfolio(context.Context) (*portalapi.Portfolio, error) {
	f.portfolioCalls++
	return f.portfolio, f.portfolioErr
}

func (f *fakePortal) CreateOrder(_ context.Context, req portalapi.OrderRequest) (*portalapi.OrderResult, error) {
	f.orders = append(f.orders, req)
	return f.orderResult, f.orderErr
}

func (f *fakePortal) SimulatePortfolio(_ context.Context, set portalapi.PriceOverrideSet) (*portalapi.Portfolio, error) {
	f.simulations = append(f.simulations, set)
	return f.simulated, f.simulateErr
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func livePortfolio() *portalapi.Portfolio {
	return &portalapi.Portfolio{
		PortfolioID: 12,
		Positions: []portalapi.Position{
			{ProductID: 1, Ticker: "PETR4", ProductName: "Petrobras PN", Quantity: d("10"), MarketValue: d("385"), FinancialResult: d("35")},
			{ProductID: 2, Ticker: "VALE3", ProductName: "Vale ON", Quantity: d("4"), MarketValue: d("260"), FinancialResult: d("-20")},
		},
		TotalMarketValue:     d("645"),
		TotalFinancialResult: d("15"),
	}
}

var petr4 = portalapi.Product{ProductID: 1, Ticker: "PETR4", ProductName: "Petrobras PN", LastPrice: d("38.50")}
