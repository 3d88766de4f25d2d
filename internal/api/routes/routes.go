// server/internal/api/routes/routes.go
package routes

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"reagent-inventory-api-server/config"
	"reagent-inventory-api-server/internal/api/handlers"
	"reagent-inventory-api-server/internal/api/middleware"
	"reagent-inventory-api-server/internal/auth"
	"reagent-inventory-api-server/internal/decoder"
	"reagent-inventory-api-server/internal/models"
	"reagent-inventory-api-server/internal/reconciler"
	"reagent-inventory-api-server/internal/report"
	"reagent-inventory-api-server/internal/socket"
	"reagent-inventory-api-server/internal/store"
)

// Dependencies are the components the router hands to its handlers.
type Dependencies struct {
	Config     config.Config
	Log        zerolog.Logger
	Items      store.ItemStore
	Logs       store.LogStore
	Users      store.UserStore
	Reconciler *reconciler.Reconciler
	Decoder    *decoder.Decoder
	Archiver   handlers.ImageArchiver
	Hub        *socket.Hub
	Tokens     *auth.TokenService
	Report     *report.InventoryReport
	Ping       func(ctx context.Context) error
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", handlers.ScanSessionHeader},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// SetupRouter wires handlers and middleware onto a gin engine.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))

	// Handlers
	healthHandler := &handlers.HealthHandler{Ping: deps.Ping}
	userHandler := &handlers.UserHandler{Users: deps.Users, Tokens: deps.Tokens}
	scanHandler := &handlers.ScanHandler{
		Reconciler:    deps.Reconciler,
		Decoder:       deps.Decoder,
		Archiver:      deps.Archiver,
		Hub:           deps.Hub,
		MaxImageBytes: deps.Config.Scan.MaxImageBytes,
		Log:           deps.Log,
	}
	itemHandler := &handlers.ItemHandler{Items: deps.Items, Reconciler: deps.Reconciler, Hub: deps.Hub}
	logHandler := &handlers.LogHandler{Logs: deps.Logs}
	reportHandler := &handlers.ReportHandler{Items: deps.Items, Report: deps.Report}
	webSocketHandler := &handlers.WebSocketHandler{
		Hub:        deps.Hub,
		Tokens:     deps.Tokens,
		Reconciler: deps.Reconciler,
		Log:        deps.Log,
	}

	router.GET("/healthz", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	{
		// Scan feed; the token travels in the query string.
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/login", userHandler.Login)
		}

		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate(deps.Tokens))
		admin.Use(middleware.Authorize(models.RoleAdmin))
		{
			admin.POST("/users", userHandler.CreateUser)
		}

		inventory := apiV1.Group("/")
		inventory.Use(middleware.Authenticate(deps.Tokens))
		inventory.Use(middleware.Authorize(models.RoleAdmin, models.RoleOperator))
		{
			scans := inventory.Group("/scans")
			{
				scans.POST("", scanHandler.Scan)
				scans.POST("/image", scanHandler.ScanImage)
			}

			items := inventory.Group("/items")
			{
				items.GET("", itemHandler.GetAllItems)
				items.POST("", itemHandler.RegisterItem)
				items.GET("/:barcode", itemHandler.GetItemByBarcode)
				items.POST("/:barcode/stock-out", itemHandler.StockOut)
			}

			inventory.GET("/logs", logHandler.GetUsageLogs)
			inventory.GET("/reports/inventory.pdf", reportHandler.InventoryPDF)
		}
	}

	return router
}
