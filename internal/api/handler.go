package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/service"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	cart     *service.CartService
	wishlist *service.WishlistService
	orders   *service.OrderService
	accounts *service.AccountService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	wishlist *service.WishlistService,
	orders *service.OrderService,
	accounts *service.AccountService,
) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		wishlist: wishlist,
		orders:   orders,
		accounts: accounts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(sessionMiddleware())
	v1.Use(authMiddleware(h.accounts))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/logout", h.logout)
		}

		account := v1.Group("/account", requireAuth)
		{
			account.PUT("/profile", h.updateProfile)
			account.PUT("/password", h.changePassword)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.listProducts)
			products.GET("/just-for-you", h.justForYou)
			products.GET("/:id", h.getProduct)
		}

		cart := v1.Group("/cart")
		{
			cart.GET("", h.getCart)
			cart.GET("/totals", h.cartTotals)
			cart.POST("/items", h.addToCart)
			cart.PUT("/items/:productId", h.updateCartQty)
			cart.DELETE("/items/:productId", h.removeFromCart)
			cart.DELETE("", h.clearCart)
		}

		wishlist := v1.Group("/wishlist")
		{
			wishlist.GET("", h.getWishlist)
			wishlist.POST("/items", h.addToWishlist)
			wishlist.DELETE("/items/:productId", h.removeFromWishlist)
			wishlist.DELETE("", h.clearWishlist)
			wishlist.POST("/items/:productId/move-to-cart", h.moveWishlistItemToCart)
			wishlist.POST("/move-all-to-cart", h.moveAllWishlistToCart)
		}

		checkout := v1.Group("/checkout", requireAuth)
		{
			checkout.POST("/cart", h.placeOrderFromCart)
			checkout.POST("/buy-now", h.placeOrderFromSingleItem)
		}

		orders := v1.Group("/orders", requireAuth)
		{
			orders.GET("", h.listOrders)
			orders.GET("/:id", h.getOrder)
			orders.GET("/:id/bank-details", h.bankDetails)
		}

		admin := v1.Group("/admin", requireAuth, requireAdmin)
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.DELETE("/products/:id", h.deleteProduct)
		}
	}
}

// writeError translates service errors into HTTP responses.
func writeError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"fields": vErr.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	case errors.Is(err, service.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Checkout already in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

// ----- auth / account -----

func (h *Handler) register(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetCookie(authCookie, token, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie(authCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name" binding:"required"`
		Email    string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.accounts.UpdateProfile(c.Request.Context(), customerID(c), req.FullName, req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) changePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), customerID(c), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// ----- catalog -----

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) justForYou(c *gin.Context) {
	products, err := h.catalog.JustForYou(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ----- cart -----

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.cart.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cart})
}

func (h *Handler) cartTotals(c *gin.Context) {
	totals, err := h.cart.Totals(c.Request.Context(), sessionID(c), c.Query("province"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) addToCart(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
		Qty       int   `json:"qty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	cart, err := h.cart.Add(c.Request.Context(), sessionID(c), req.ProductID, req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cart})
}

func (h *Handler) updateCartQty(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req struct {
		Qty int `json:"qty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cart, err := h.cart.UpdateQty(c.Request.Context(), sessionID(c), id, req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cart})
}

func (h *Handler) removeFromCart(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	cart, err := h.cart.Remove(c.Request.Context(), sessionID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cart})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": []models.CartItem{}})
}

// ----- wishlist -----

func (h *Handler) getWishlist(c *gin.Context) {
	list, err := h.wishlist.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *Handler) addToWishlist(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	list, err := h.wishlist.Add(c.Request.Context(), sessionID(c), req.ProductID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	list, err := h.wishlist.Remove(c.Request.Context(), sessionID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *Handler) clearWishlist(c *gin.Context) {
	if err := h.wishlist.Clear(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": []models.WishlistItem{}})
}

func (h *Handler) moveWishlistItemToCart(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	qty, _ := strconv.Atoi(c.DefaultQuery("qty", "1"))

	if err := h.wishlist.MoveToCart(c.Request.Context(), sessionID(c), id, qty); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "moved"})
}

func (h *Handler) moveAllWishlistToCart(c *gin.Context) {
	if err := h.wishlist.MoveAllToCart(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "moved"})
}

// ----- checkout / orders -----

func (h *Handler) placeOrderFromCart(c *gin.Context) {
	var req struct {
		PaymentID int                `json:"payment_id" binding:"required"`
		Billing   models.BillingForm `json:"billing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	orderID, err := h.orders.PlaceOrderFromCart(c.Request.Context(), sessionID(c), customerID(c), req.PaymentID, req.Billing)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

func (h *Handler) placeOrderFromSingleItem(c *gin.Context) {
	var req struct {
		ProductID int64              `json:"product_id" binding:"required"`
		Qty       int                `json:"qty"`
		PaymentID int                `json:"payment_id" binding:"required"`
		Billing   models.BillingForm `json:"billing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	orderID, err := h.orders.PlaceOrderFromSingleItem(c.Request.Context(), customerID(c), req.ProductID, req.Qty, req.PaymentID, req.Billing)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), customerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, items, err := h.orders.GetOrder(c.Request.Context(), id, customerID(c), isAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

// bankDetails returns the transfer amount for a bank-payment order. The
// transfer itself is recorded, never processed.
func (h *Handler) bankDetails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, _, err := h.orders.GetOrder(c.Request.Context(), id, customerID(c), isAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if order.PaymentID != models.PaymentBank {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order is not a bank transfer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": order.ID,
		"amount":   order.TotalAmount,
	})
}

// ----- admin catalog -----

func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalog.Create(c.Request.Context(), &product); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	product.ID = id

	if err := h.catalog.Update(c.Request.Context(), &product); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
