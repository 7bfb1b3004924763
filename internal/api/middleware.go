package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/service"
	"github.com/kishankumar2607/TechNova/internal/util"
)

const (
	sessionCookie = "session_id"
	authCookie    = "auth_token"

	ctxSessionID  = "session_id"
	ctxCustomerID = "customer_id"
	ctxRole       = "role"
)

// sessionMiddleware ensures every request carries a session id, minting a
// cookie on first touch. Cart and wishlist state is keyed by this id.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sessionCookie)
		if err != nil || sid == "" {
			sid = uuid.New().String()
			c.SetCookie(sessionCookie, sid, int((4 * time.Hour).Seconds()), "/", "", false, true)
		}
		c.Set(ctxSessionID, sid)
		c.Next()
	}
}

// authMiddleware extracts identity from the auth cookie or a bearer
// header. Absent or invalid tokens leave the request anonymous; handlers
// that need identity use requireAuth.
func authMiddleware(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(authCookie)
		if token == "" {
			header := c.GetHeader("Authorization")
			if after := strings.TrimPrefix(header, "Bearer "); after != header {
				token = after
			}
		}

		if token != "" {
			if userID, role, err := accounts.VerifyToken(token); err == nil {
				c.Set(ctxCustomerID, userID)
				c.Set(ctxRole, role)
			}
		}

		c.Next()
	}
}

// requireAuth rejects anonymous requests.
func requireAuth(c *gin.Context) {
	if _, ok := c.Get(ctxCustomerID); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.Next()
}

// requireAdmin rejects requests without the Admin role.
func requireAdmin(c *gin.Context) {
	role, _ := c.Get(ctxRole)
	if role != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}

func customerID(c *gin.Context) int64 {
	v, ok := c.Get(ctxCustomerID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(ctxRole)
	return role == models.RoleAdmin
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
