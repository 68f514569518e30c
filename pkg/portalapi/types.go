package portalapi

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Session Types
// =============================================================================

// Role is the kind of portal user a session belongs to.
type Role string

const (
	RoleAdvisor Role = "advisor"
	RoleClient  Role = "client"
)

// ParseRole validates a role string from the wire or from disk.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdvisor, RoleClient:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the identity returned at login.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse is returned by POST /login on success.
type LoginResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
	User  User   `json:"user"`
}

// =============================================================================
// Portfolio Types
// =============================================================================

// Position is one holding inside a portfolio.
type Position struct {
	ProductID       int64           `json:"productId"`
	Ticker          string          `json:"ticker"`
	ProductName     string          `json:"productName"`
	Quantity        decimal.Decimal `json:"quantity"`
	MarketValue     decimal.Decimal `json:"marketValue"`
	FinancialResult decimal.Decimal `json:"financialResult"`
}

// UnitPrice is ExactUnitPrice rounded to cents, for display.
func (p Position) UnitPrice() decimal.Decimal {
	return p.ExactUnitPrice().Round(2)
}

// ExactUnitPrice derives the per-unit price of the position
// (marketValue / quantity) without rounding, so that quantity times it gives
// back the market value. A zero quantity yields zero.
func (p Position) ExactUnitPrice() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.MarketValue.Div(p.Quantity)
}

// Portfolio is the authoritative portfolio payload. The simulate endpoint
// returns the same shape.
type Portfolio struct {
	PortfolioID          int64           `json:"portfolioId"`
	Name                 string          `json:"name,omitempty"`
	Positions            []Position      `json:"positions"`
	TotalMarketValue     decimal.Decimal `json:"totalMarketValue"`
	TotalFinancialResult decimal.Decimal `json:"totalFinancialResult"`
}

// PriceOverride is one hypothetical per-unit price.
type PriceOverride struct {
	ProductID         int64           `json:"productId"`
	HypotheticalPrice decimal.Decimal `json:"hypotheticalPrice"`
}

// PriceOverrideSet is the body of POST /portal/portfolio/simulate.
type PriceOverrideSet struct {
	Overrides []PriceOverride `json:"overrides"`
}

// =============================================================================
// Order Types
// =============================================================================

// OrderTypeBuy is the only order type the client submits.
const OrderTypeBuy = "buy"

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	PortfolioID int64           `json:"portfolioId"`
	ProductID   int64           `json:"productId"`
	OrderType   string          `json:"orderType"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// OrderResult is returned when an order executes.
type OrderResult struct {
	OrderID int64  `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// =============================================================================
// Product Types
// =============================================================================

// Product is one entry of the product catalog.
type Product struct {
	ProductID   int64           `json:"productId"`
	Ticker      string          `json:"ticker"`
	ProductName string          `json:"productName"`
	AssetClass  string          `json:"assetClass"`
	RiskLevel   int             `json:"riskLevel"`
	Issuer      string          `json:"issuer,omitempty"`
	LastPrice   decimal.Decimal `json:"lastPrice"`
}

// NewProduct is the body of POST /products.
type NewProduct struct {
	Ticker      string          `json:"ticker"`
	ProductName string          `json:"productName"`
	AssetClass  string          `json:"assetClass"`
	RiskLevel   int             `json:"riskLevel"`
	Issuer      string          `json:"issuer,omitempty"`
	LastPrice   decimal.Decimal `json:"lastPrice"`
}

// =============================================================================
// Account & Profile Types
// =============================================================================

// Account is the client's cash account.
type Account struct {
	AccountID     int64           `json:"accountId"`
	AccountType   string          `json:"accountType"`
	Branch        string          `json:"branch"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
}

// BalanceChange is the body of POST /portal/deposit and /portal/withdraw.
type BalanceChange struct {
	Amount decimal.Decimal `json:"amount"`
}

// BalanceResult is returned after a deposit or withdrawal.
type BalanceResult struct {
	Message    string          `json:"message"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// Profile is the client's own profile.
type Profile struct {
	ClientID         int64            `json:"clientId"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Document         string           `json:"document"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
}

// =============================================================================
// Advisor Types
// =============================================================================

// ComplianceStatus is the compliance state of a client.
type ComplianceStatus string

const (
	CompliancePending     ComplianceStatus = "pending"
	ComplianceApproved    ComplianceStatus = "approved"
	ComplianceRejected    ComplianceStatus = "rejected"
	ComplianceUnderReview ComplianceStatus = "under_review"
)

// ParseComplianceStatus validates a compliance status string.
func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	switch ComplianceStatus(s) {
	case CompliancePending, ComplianceApproved, ComplianceRejected, ComplianceUnderReview:
		return ComplianceStatus(s), nil
	}
	return "", fmt.Errorf("invalid compliance status %q (use pending, approved, rejected or under_review)", s)
}

// ClientRecord is one client in the advisor's book.
type ClientRecord struct {
	ClientID         int64            `json:"clientId"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Document         string           `json:"document"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
}

// ClientDraft is the body of POST /clients.
type ClientDraft struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Password string `json:"password"`
}

// ComplianceUpdate is the body of PUT /clients/{id}/compliance-status.
type ComplianceUpdate struct {
	Status        ComplianceStatus `json:"status"`
	Justification string           `json:"justification,omitempty"`
}
