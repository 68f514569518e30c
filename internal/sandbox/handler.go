package sandbox

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonandersen/chicoin/pkg/portalapi"
	"github.com/rs/zerolog"
)

const sessionKey = "session"

// Handler exposes the store over the portal REST contract.
type Handler struct {
	store  *Store
	logger zerolog.Logger
}

// NewHandler creates a handler backed by store.
func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RequireRole authenticates the bearer token and rejects any role not listed.
func (h *Handler) RequireRole(roles ...portalapi.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token."})
			return
		}
		sess, ok := h.store.Authenticate(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token."})
			return
		}
		for _, r := range roles {
			if sess.Role == r {
				c.Set(sessionKey, sess)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + string(sess.Role) + "."})
	}
}

func currentSession(c *gin.Context) Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(Session)
	return sess
}

// fail writes err as a JSON error payload.
func (h *Handler) fail(c *gin.Context, err error) {
	var se *Error
	if errors.As(err, &se) {
		c.JSON(se.Status, gin.H{"error": se.Message})
		return
	}
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected sandbox error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error.", "details": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body.", "details": err.Error()})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req portalapi.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.store.Login(req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info().Str("role", string(resp.Role)).Int64("user_id", resp.User.ID).Msg("login")
	c.JSON(http.StatusOK, resp)
}

// ListClients handles GET /clients.
func (h *Handler) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Clients())
}

// CreateClient handles POST /clients.
func (h *Handler) CreateClient(c *gin.Context) {
	var req portalapi.ClientDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	record, err := h.store.AddClient(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// UpdateCompliance handles PUT /clients/:id/compliance-status.
func (h *Handler) UpdateCompliance(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id."})
		return
	}
	var req portalapi.ComplianceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.SetCompliance(id, req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Compliance status updated."})
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Products())
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(c *gin.Context) {
	var req portalapi.NewProduct
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.store.AddProduct(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetAccount handles GET /portal/account.
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.store.Account(currentSession(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetProfile handles GET /portal/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.store.Profile(currentSession(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetPortfolio handles GET /portal/portfolio.
func (h *Handler) GetPortfolio(c *gin.Context) {
	pf, err := h.store.Portfolio(currentSession(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pf)
}

// SimulatePortfolio handles POST /portal/portfolio/simulate.
func (h *Handler) SimulatePortfolio(c *gin.Context) {
	var req portalapi.PriceOverrideSet
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pf, err := h.store.Simulate(currentSession(c).UserID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pf)
}

// Deposit handles POST /portal/deposit.
func (h *Handler) Deposit(c *gin.Context) {
	var req portalapi.BalanceChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.store.Deposit(currentSession(c).UserID, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Withdraw handles POST /portal/withdraw.
func (h *Handler) Withdraw(c *gin.Context) {
	var req portalapi.BalanceChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.store.Withdraw(currentSession(c).UserID, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req portalapi.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess := currentSession(c)
	result, err := h.store.PlaceOrder(sess.UserID, req)
	if err != nil {
		h.logger.Info().Err(err).Int64("client_id", sess.UserID).Int64("product_id", req.ProductID).Msg("order rejected")
		h.fail(c, err)
		return
	}
	h.logger.Info().Int64("client_id", sess.UserID).Int64("order_id", result.OrderID).Msg("order executed")
	c.JSON(http.StatusCreated, result)
}
