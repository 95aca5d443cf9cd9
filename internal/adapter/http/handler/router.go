package handler

import (
	"auction-escrow-service/internal/adapter/http/middleware"
	redisStore "auction-escrow-service/internal/adapter/storage/redis"
	"auction-escrow-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	AuctionSvc     ports.AuctionService
	LedgerSvc      ports.LedgerService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	auctionHandler := NewAuctionHandler(deps.AuctionSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)

	auctions := v1.Group("/auctions", jwtAuth)
	{
		auctions.POST("", rl("auctions"), auctionHandler.Create)
		auctions.GET("", rl("auctions"), auctionHandler.List)
		auctions.GET("/:id", rl("auctions"), auctionHandler.Get)
		auctions.POST("/:id/bids", rl("bids"), auctionHandler.PlaceBid)
		auctions.POST("/:id/withdraw", rl("withdrawals"), auctionHandler.SellerWithdraw)
		auctions.POST("/:id/refund", rl("withdrawals"), auctionHandler.LoserWithdraw)
		auctions.PUT("/:id/allowlist", rl("auctions"), auctionHandler.UpdateAllowList)
	}

	ledger := v1.Group("/ledger", jwtAuth)
	{
		ledger.POST("/topup", rl("ledger_topup"), ledgerHandler.Topup)
		ledger.GET("/balance", rl("auctions"), ledgerHandler.Balance)
	}

	return r
}
