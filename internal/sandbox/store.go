// Package sandbox is an in-memory portal that speaks the same REST contract
// as the real backend. It backs the `sandbox` command and end-to-end tests.
package sandbox

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonandersen/chicoin/pkg/portalapi"
	"github.com/shopspring/decimal"
)

// Demo credentials seeded by Seed.
const (
	AdvisorEmail    = "marina@chicoin.dev"
	AdvisorPassword = "advisor123"
	ClientEmail     = "ana@chicoin.dev"
	ClientPassword  = "client123"
)

// Error is a failure with the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Session identifies the owner of a bearer token.
type Session struct {
	Role   portalapi.Role
	UserID int64
}

type advisor struct {
	user     portalapi.User
	password string
}

type holding struct {
	quantity decimal.Decimal
	avgCost  decimal.Decimal
}

type client struct {
	record      portalapi.ClientRecord
	password    string
	account     portalapi.Account
	portfolioID int64
	holdings    map[int64]*holding
}

// Store holds all sandbox state behind a single mutex.
type Store struct {
	mu sync.Mutex

	advisors map[string]*advisor
	clients  map[int64]*client
	products map[int64]*portalapi.Product
	sessions map[string]Session

	nextAdvisorID   int64
	nextClientID    int64
	nextProductID   int64
	nextOrderID     int64
	nextPortfolioID int64

	newToken func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		advisors:        make(map[string]*advisor),
		clients:         make(map[int64]*client),
		products:        make(map[int64]*portalapi.Product),
		sessions:        make(map[string]Session),
		nextAdvisorID:   1,
		nextClientID:    1,
		nextProductID:   1,
		nextOrderID:     1,
		nextPortfolioID: 1,
		newToken:        func() string { return uuid.NewString() },
	}
}

// NewSeededStore returns a store populated by Seed.
func NewSeededStore() *Store {
	s := NewStore()
	Seed(s)
	return s
}

// Seed adds one advisor, one approved client holding PETR4 and a small
// product catalog.
func Seed(s *Store) {
	s.AddAdvisor("Marina Costa", AdvisorEmail, AdvisorPassword)

	petr4, _ := s.AddProduct(portalapi.NewProduct{
		Ticker: "PETR4", ProductName: "Petrobras PN", AssetClass: "equity",
		RiskLevel: 4, Issuer: "Petrobras", LastPrice: decimal.RequireFromString("38.50"),
	})
	_, _ = s.AddProduct(portalapi.NewProduct{
		Ticker: "VALE3", ProductName: "Vale ON", AssetClass: "equity",
		RiskLevel: 4, Issuer: "Vale", LastPrice: decimal.RequireFromString("65.00"),
	})
	_, _ = s.AddProduct(portalapi.NewProduct{
		Ticker: "SELIC29", ProductName: "Tesouro Selic 2029", AssetClass: "fixed_income",
		RiskLevel: 1, Issuer: "Tesouro Nacional", LastPrice: decimal.RequireFromString("145.20"),
	})
	_, _ = s.AddProduct(portalapi.NewProduct{
		Ticker: "CDBXP27", ProductName: "CDB XP 2027", AssetClass: "fixed_income",
		RiskLevel: 2, Issuer: "Banco XP", LastPrice: decimal.RequireFromString("100.00"),
	})

	ana, _ := s.AddClient(portalapi.ClientDraft{
		Name: "Ana Souza", Email: ClientEmail, Document: "123.456.789-00", Password: ClientPassword,
	})
	_ = s.SetCompliance(ana.ClientID, portalapi.ComplianceUpdate{Status: portalapi.ComplianceApproved})

	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.clients[ana.ClientID]
	c.account.Balance = decimal.NewFromInt(10000)
	c.holdings[petr4.ProductID] = &holding{
		quantity: decimal.NewFromInt(10),
		avgCost:  decimal.RequireFromString("35.00"),
	}
}

// AddAdvisor registers an advisor login.
func (s *Store) AddAdvisor(name, email, password string) portalapi.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := portalapi.User{ID: s.nextAdvisorID, Name: name, Email: email}
	s.nextAdvisorID++
	s.advisors[strings.ToLower(email)] = &advisor{user: u, password: password}
	return u
}

// Login checks credentials against advisors first, then clients, and issues
// a fresh token.
func (s *Store) Login(email, password string) (portalapi.LoginResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if email == "" || password == "" {
		return portalapi.LoginResponse{}, newError(http.StatusBadRequest, "Email and password are required.")
	}

	key := strings.ToLower(email)
	if a, ok := s.advisors[key]; ok && a.password == password {
		return s.issue(portalapi.RoleAdvisor, a.user.ID, a.user), nil
	}
	for _, c := range s.clients {
		if strings.EqualFold(c.record.Email, email) && c.password == password {
			user := portalapi.User{ID: c.record.ClientID, Name: c.record.Name, Email: c.record.Email}
			return s.issue(portalapi.RoleClient, c.record.ClientID, user), nil
		}
	}
	return portalapi.LoginResponse{}, newError(http.StatusUnauthorized, "Invalid email or password.")
}

func (s *Store) issue(role portalapi.Role, userID int64, user portalapi.User) portalapi.LoginResponse {
	token := s.newToken()
	s.sessions[token] = Session{Role: role, UserID: userID}
	return portalapi.LoginResponse{Token: token, Role: role, User: user}
}

// Authenticate resolves a bearer token.
func (s *Store) Authenticate(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

// Revoke invalidates a token.
func (s *Store) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Clients lists every client ordered by ID.
func (s *Store) Clients() []portalapi.ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]portalapi.ClientRecord, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c.record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// AddClient registers a client with an empty account and portfolio.
func (s *Store) AddClient(nc portalapi.ClientDraft) (portalapi.ClientRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nc.Name == "" || nc.Email == "" || nc.Document == "" || nc.Password == "" {
		return portalapi.ClientRecord{}, newError(http.StatusBadRequest, "Name, email, document and password are required.")
	}
	for _, c := range s.clients {
		if strings.EqualFold(c.record.Email, nc.Email) {
			return portalapi.ClientRecord{}, newError(http.StatusConflict, "Email already registered.")
		}
		if c.record.Document == nc.Document {
			return portalapi.ClientRecord{}, newError(http.StatusConflict, "Document already registered.")
		}
	}

	id := s.nextClientID
	s.nextClientID++
	portfolioID := s.nextPortfolioID
	s.nextPortfolioID++

	c := &client{
		record: portalapi.ClientRecord{
			ClientID:         id,
			Name:             nc.Name,
			Email:            nc.Email,
			Document:         nc.Document,
			ComplianceStatus: portalapi.CompliancePending,
		},
		password: nc.Password,
		account: portalapi.Account{
			AccountID:     id,
			AccountType:   "investment",
			Branch:        "0001",
			AccountNumber: fmt.Sprintf("C-%07d", id),
			Balance:       decimal.Zero,
		},
		portfolioID: portfolioID,
		holdings:    make(map[int64]*holding),
	}
	s.clients[id] = c
	return c.record, nil
}

// SetCompliance updates a client's compliance status.
func (s *Store) SetCompliance(clientID int64, update portalapi.ComplianceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := portalapi.ParseComplianceStatus(string(update.Status))
	if err != nil {
		return newError(http.StatusBadRequest, "Invalid compliance status.")
	}
	c, ok := s.clients[clientID]
	if !ok {
		return newError(http.StatusNotFound, "Client not found.")
	}
	c.record.ComplianceStatus = status
	return nil
}

// Products lists the catalog ordered by ID.
func (s *Store) Products() []portalapi.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]portalapi.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// AddProduct adds a catalog entry. Tickers are unique.
func (s *Store) AddProduct(np portalapi.NewProduct) (portalapi.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if np.Ticker == "" || np.ProductName == "" || np.AssetClass == "" {
		return portalapi.Product{}, newError(http.StatusBadRequest, "Ticker, name and asset class are required.")
	}
	if np.RiskLevel < 1 || np.RiskLevel > 5 {
		return portalapi.Product{}, newError(http.StatusBadRequest, "Risk level must be between 1 and 5.")
	}
	if np.LastPrice.IsNegative() {
		return portalapi.Product{}, newError(http.StatusBadRequest, "Price cannot be negative.")
	}
	for _, p := range s.products {
		if strings.EqualFold(p.Ticker, np.Ticker) {
			return portalapi.Product{}, newError(http.StatusConflict, "Ticker already registered.")
		}
	}

	p := &portalapi.Product{
		ProductID:   s.nextProductID,
		Ticker:      strings.ToUpper(np.Ticker),
		ProductName: np.ProductName,
		AssetClass:  np.AssetClass,
		RiskLevel:   np.RiskLevel,
		Issuer:      np.Issuer,
		LastPrice:   np.LastPrice,
	}
	s.nextProductID++
	s.products[p.ProductID] = p
	return *p, nil
}

// SetPrice moves a product's market price.
func (s *Store) SetPrice(productID int64, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return newError(http.StatusNotFound, "Product not found.")
	}
	if price.IsNegative() {
		return newError(http.StatusBadRequest, "Price cannot be negative.")
	}
	p.LastPrice = price
	return nil
}

// Account returns the client's cash account.
func (s *Store) Account(clientID int64) (portalapi.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.Account{}, err
	}
	return c.account, nil
}

// Profile returns the client's own profile.
func (s *Store) Profile(clientID int64) (portalapi.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.Profile{}, err
	}
	return portalapi.Profile{
		ClientID:         c.record.ClientID,
		Name:             c.record.Name,
		Email:            c.record.Email,
		Document:         c.record.Document,
		ComplianceStatus: c.record.ComplianceStatus,
	}, nil
}

// Portfolio values the client's holdings at current market prices.
func (s *Store) Portfolio(clientID int64) (portalapi.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.Portfolio{}, err
	}
	return s.value(c, func(productID int64) decimal.Decimal {
		return s.products[productID].LastPrice
	}), nil
}

// Simulate values the client's holdings at hypothetical prices. The set must
// carry exactly one non-negative override per held position.
func (s *Store) Simulate(clientID int64, set portalapi.PriceOverrideSet) (portalapi.Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.Portfolio{}, err
	}
	if len(c.holdings) == 0 {
		return portalapi.Portfolio{}, newError(http.StatusBadRequest, "Portfolio has no positions to simulate.")
	}
	if len(set.Overrides) != len(c.holdings) {
		return portalapi.Portfolio{}, newError(http.StatusBadRequest, "Expected %d overrides, got %d.", len(c.holdings), len(set.Overrides))
	}

	prices := make(map[int64]decimal.Decimal, len(set.Overrides))
	for _, o := range set.Overrides {
		if _, held := c.holdings[o.ProductID]; !held {
			return portalapi.Portfolio{}, newError(http.StatusBadRequest, "Product %d is not in the portfolio.", o.ProductID)
		}
		if _, dup := prices[o.ProductID]; dup {
			return portalapi.Portfolio{}, newError(http.StatusBadRequest, "Duplicate override for product %d.", o.ProductID)
		}
		if o.HypotheticalPrice.IsNegative() {
			return portalapi.Portfolio{}, newError(http.StatusBadRequest, "Hypothetical price cannot be negative.")
		}
		prices[o.ProductID] = o.HypotheticalPrice
	}

	return s.value(c, func(productID int64) decimal.Decimal {
		return prices[productID]
	}), nil
}

// value builds the portfolio payload. Positions are ordered by product ID so
// repeated loads render identically.
func (s *Store) value(c *client, priceOf func(int64) decimal.Decimal) portalapi.Portfolio {
	ids := make([]int64, 0, len(c.holdings))
	for id := range c.holdings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pf := portalapi.Portfolio{
		PortfolioID:          c.portfolioID,
		Name:                 "Main portfolio",
		Positions:            make([]portalapi.Position, 0, len(ids)),
		TotalMarketValue:     decimal.Zero,
		TotalFinancialResult: decimal.Zero,
	}
	for _, id := range ids {
		h := c.holdings[id]
		p := s.products[id]
		mv := h.quantity.Mul(priceOf(id)).Round(2)
		result := mv.Sub(h.quantity.Mul(h.avgCost)).Round(2)
		pf.Positions = append(pf.Positions, portalapi.Position{
			ProductID:       id,
			Ticker:          p.Ticker,
			ProductName:     p.ProductName,
			Quantity:        h.quantity,
			MarketValue:     mv,
			FinancialResult: result,
		})
		pf.TotalMarketValue = pf.TotalMarketValue.Add(mv)
		pf.TotalFinancialResult = pf.TotalFinancialResult.Add(result)
	}
	return pf
}

// Deposit credits the client's account.
func (s *Store) Deposit(clientID int64, amount decimal.Decimal) (portalapi.BalanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.BalanceResult{}, err
	}
	if !amount.IsPositive() {
		return portalapi.BalanceResult{}, newError(http.StatusBadRequest, "Amount must be positive.")
	}
	c.account.Balance = c.account.Balance.Add(amount)
	return portalapi.BalanceResult{Message: "Deposit received.", NewBalance: c.account.Balance}, nil
}

// Withdraw debits the client's account.
func (s *Store) Withdraw(clientID int64, amount decimal.Decimal) (portalapi.BalanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.BalanceResult{}, err
	}
	if !amount.IsPositive() {
		return portalapi.BalanceResult{}, newError(http.StatusBadRequest, "Amount must be positive.")
	}
	if c.account.Balance.LessThan(amount) {
		return portalapi.BalanceResult{}, newError(http.StatusBadRequest, "Insufficient balance. Balance: %s", portalapi.FormatMoney(c.account.Balance))
	}
	c.account.Balance = c.account.Balance.Sub(amount)
	return portalapi.BalanceResult{Message: "Withdrawal processed.", NewBalance: c.account.Balance}, nil
}

// PlaceOrder executes a buy at the product's current market price. The
// requested unit price only needs to be positive; the fill uses the server's
// price, and the position's average cost is recomputed as a weighted mean.
func (s *Store) PlaceOrder(clientID int64, req portalapi.OrderRequest) (portalapi.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.client(clientID)
	if err != nil {
		return portalapi.OrderResult{}, err
	}
	if !req.Quantity.IsPositive() || !req.UnitPrice.IsPositive() {
		return portalapi.OrderResult{}, newError(http.StatusBadRequest, "Quantity and unit price must be positive.")
	}
	if t := strings.ToLower(req.OrderType); t != "" && t != portalapi.OrderTypeBuy {
		return portalapi.OrderResult{}, newError(http.StatusBadRequest, "Only buy orders are supported.")
	}
	if req.PortfolioID != c.portfolioID {
		return portalapi.OrderResult{}, newError(http.StatusForbidden, "Portfolio does not belong to this client.")
	}
	p, ok := s.products[req.ProductID]
	if !ok {
		return portalapi.OrderResult{}, newError(http.StatusNotFound, "Product not found.")
	}

	price := p.LastPrice
	if !price.IsPositive() {
		price = req.UnitPrice
	}
	cost := req.Quantity.Mul(price).Round(2)
	if c.account.Balance.LessThan(cost) {
		return portalapi.OrderResult{}, newError(http.StatusBadRequest, "Insufficient balance. Balance: %s", portalapi.FormatMoney(c.account.Balance))
	}

	c.account.Balance = c.account.Balance.Sub(cost)
	h, held := c.holdings[p.ProductID]
	if !held {
		c.holdings[p.ProductID] = &holding{quantity: req.Quantity, avgCost: price}
	} else {
		total := h.quantity.Add(req.Quantity)
		h.avgCost = h.quantity.Mul(h.avgCost).Add(cost).Div(total).Round(4)
		h.quantity = total
	}

	id := s.nextOrderID
	s.nextOrderID++
	return portalapi.OrderResult{
		OrderID: id,
		Status:  "executed",
		Message: fmt.Sprintf("Bought %s %s at %s.", portalapi.FormatQuantity(req.Quantity), p.Ticker, portalapi.FormatMoney(price)),
	}, nil
}

func (s *Store) client(clientID int64) (*client, error) {
	c, ok := s.clients[clientID]
	if !ok {
		return nil, newError(http.StatusNotFound, "Client not found.")
	}
	return c, nil
}
