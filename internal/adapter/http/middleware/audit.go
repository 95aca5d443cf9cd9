package middleware

import (
	"encoding/json"
	"strings"
	"time"

	"auction-escrow-service/internal/core/domain"
	"auction-escrow-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write
// operations. It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var accountID *uuid.UUID
		if aid, exists := c.Get(CtxAccountID); exists {
			if id, ok := aid.(uuid.UUID); ok {
				accountID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			AccountID:    accountID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/api/v1/auth/register" && method == "POST":
		return domain.AuditActionRegister, "account"
	case path == "/api/v1/auth/login" && method == "POST":
		return domain.AuditActionLogin, "session"
	case path == "/api/v1/ledger/topup" && method == "POST":
		return domain.AuditActionTopup, "ledger"
	case path == "/api/v1/auctions" && method == "POST":
		return domain.AuditActionCreateAuction, "auction"
	case strings.HasSuffix(path, "/bids") && method == "POST":
		return domain.AuditActionBid, "auction"
	case strings.HasSuffix(path, "/withdraw") && method == "POST":
		return domain.AuditActionSellerWithdraw, "auction"
	case strings.HasSuffix(path, "/refund") && method == "POST":
		return domain.AuditActionLoserWithdraw, "auction"
	case strings.HasSuffix(path, "/allowlist") && method == "PUT":
		return domain.AuditActionAllowListChange, "auction"
	}
	return "", ""
}
