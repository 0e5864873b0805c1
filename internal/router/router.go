package router

import (
	"gamecore-market/internal/config"
	"gamecore-market/internal/handler"
	"gamecore-market/internal/market"
	"gamecore-market/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and the API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// 核心组件组装：钱包流水 / 挂单 / 交易记录 / 撮合
	ledger := market.NewLedger(db)
	listings := market.NewListingStore(db, cfg.Market)
	journal := market.NewJournal(db)
	fees := market.FeePolicy{
		RateBP: cfg.Market.FeeRateBP,
		MinFee: cfg.Market.MinFee,
		MaxFee: cfg.Market.MaxFee,
	}
	orchestrator := market.NewOrchestrator(db, ledger, listings, journal, fees)

	// ====== API ======
	api := r.Group("/api")

	// 从配置中读取 JWT 密钥、签发方和过期时间
	jwtSecret := cfg.JWT.Secret
	jwtIssuer := cfg.JWT.Issuer
	// 登录/注册接口（不需要鉴权）
	authHandler := handler.NewAuthHandler(db, ledger, jwtSecret, jwtIssuer, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, jwtIssuer, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/me", handler.GetMe)

	walletHandler := handler.NewWalletHandler(db, ledger, cfg.SignIn)
	protected.GET("/wallet", walletHandler.GetBalance)
	protected.GET("/wallet/entries", walletHandler.ListEntries)
	protected.POST("/wallet/signin", walletHandler.SignIn)

	listingHandler := handler.NewListingHandler(listings)
	protected.POST("/listings", listingHandler.CreateListing)
	protected.GET("/listings", listingHandler.SearchListings)
	protected.GET("/listings/:id", listingHandler.GetListing)
	protected.PUT("/listings/:id", listingHandler.UpdateListing)
	protected.POST("/listings/:id/cancel", listingHandler.CancelListing)

	tradeHandler := handler.NewTradeHandler(orchestrator, journal)
	protected.POST("/listings/:id/buy", tradeHandler.Buy)
	protected.GET("/trades", tradeHandler.ListTrades)
	protected.GET("/trades/:id", tradeHandler.GetTrade)

	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	logHandler := handler.NewLogHandler(db)
	protected.GET("/logs", logHandler.ListLogs)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/wallet/export/csv", exportHandler.ExportCSV)
	protected.GET("/wallet/export/xlsx", exportHandler.ExportXLSX)

	return r
}
