package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/shg-marketplace-api/config"
	"github.com/kendall-kelly/shg-marketplace-api/controllers"
	"github.com/kendall-kelly/shg-marketplace-api/middleware"
	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/kendall-kelly/shg-marketplace-api/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "shg-marketplace-api"

// Deps is everything the router needs from process startup
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Logger *zap.Logger
	// Auth validates the caller's token and sets the subject and claims
	Auth gin.HandlerFunc
	// Cache backs the open order browse view; nil disables caching
	Cache services.OpenOrderCache
	// Sinks receive every notification after it is stored
	Sinks []services.Sink
	// UserInfo overrides the Auth0 userinfo client
	UserInfo services.UserInfoProvider
}

// Setup builds the API router with every route under /api/v1
func Setup(d Deps) *gin.Engine {
	controllers.RegisterValidators()

	store := services.NewNotificationStore(d.DB)
	sinks := append([]services.Sink{{Name: "database", Notifier: store}}, d.Sinks...)
	notifier := services.NewFanoutNotifier(middleware.RecordNotification, sinks...)

	userInfo := d.UserInfo
	if userInfo == nil {
		userInfo = services.NewAuth0Service(d.Config)
	}

	shgService := services.NewSHGService(d.DB, notifier, d.Logger)
	openOrderService := services.NewOpenOrderService(d.DB, shgService, notifier, d.Cache, d.Logger)
	userService := services.NewUserService(d.DB, userInfo, d.Logger)

	openOrders := controllers.NewOpenOrderController(openOrderService, d.Logger)
	shgs := controllers.NewSHGController(shgService, d.Logger)
	users := controllers.NewUserController(userService, d.Logger)
	notifications := controllers.NewNotificationController(store, d.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.LoggerMiddleware(d.Logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(corsConfig(d.Config)))

	router.GET("/metrics", middleware.PrometheusHandler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus(d.DB))

		authed := v1.Group("", d.Auth)
		authed.POST("/users", users.CreateUser)

		api := authed.Group("", middleware.LoadPrincipal(d.DB))

		api.GET("/users/me", users.GetMyProfile)
		api.PUT("/users/me", users.UpdateMyProfile)

		customer := middleware.RequireRole(models.RoleCustomer)
		shg := middleware.RequireRole(models.RoleSHG)
		admin := middleware.RequireRole(models.RoleAdmin)

		api.POST("/open-orders", customer, openOrders.Create)
		api.GET("/open-orders", shg, openOrders.ListOpen)
		api.GET("/open-orders/my", customer, openOrders.ListMine)
		api.POST("/open-orders/:id/bid", shg, openOrders.PlaceBid)
		api.PUT("/open-orders/:id/accept-bid", customer, openOrders.AcceptBid)
		api.PUT("/open-orders/:id/cancel", customer, openOrders.Cancel)

		api.POST("/shg/register", shg, shgs.Register)
		api.GET("/shg/profile", shg, shgs.Profile)
		api.GET("/shg/orders", shg, shgs.Orders)

		api.GET("/admin/shgs/pending", admin, shgs.ListPending)
		api.PUT("/admin/shgs/:id/approve", admin, shgs.Approve)
		api.PUT("/admin/shgs/:id/reject", admin, shgs.Reject)

		api.GET("/notifications", notifications.List)
		api.PUT("/notifications/read-all", notifications.MarkAllRead)
		api.PUT("/notifications/:id/read", notifications.MarkRead)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = cfg.CORSAllowedOrigins
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	return c
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SHG Marketplace API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
