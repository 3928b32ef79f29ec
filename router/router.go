package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/cafe-ordering/config"
	"github.com/yeremiapane/cafe-ordering/controllers"
	"github.com/yeremiapane/cafe-ordering/middlewares"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB          *gorm.DB
	Clock       clockwork.Clock
	Config      config.Config
	StaffTokens *utils.StaffTokens
	Sessions    *services.SessionTokenService
	Tables      *services.TableService
	Orders      *services.OrderService
	Calls       *services.WaiterCallService
}

// NewDeps builds the services on top of db. A nil throttle means in-process.
func NewDeps(db *gorm.DB, cfg config.Config, clock clockwork.Clock, throttle services.RefreshThrottle) Deps {
	if throttle == nil {
		throttle = services.NewMemoryThrottle(clock, cfg.RefreshCooldown)
	}
	sessions := services.NewSessionTokenService(db, clock, cfg.TokenSecret,
		services.WithSessionTTL(cfg.SessionTTL),
		services.WithRefreshThrottle(throttle),
	)
	return Deps{
		DB:          db,
		Clock:       clock,
		Config:      cfg,
		StaffTokens: utils.NewStaffTokens(cfg.JWTSecret, cfg.JWTTTL),
		Sessions:    sessions,
		Tables:      services.NewTableService(db, clock, sessions, cfg.PublicBaseURL),
		Orders:      services.NewOrderService(db, clock, sessions, services.WithPriceEpsilon(cfg.PriceEpsilon)),
		Calls:       services.NewWaiterCallService(db, clock, sessions),
	}
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(d.DB, d.StaffTokens)
	sessionCtrl := controllers.NewSessionController(d.Tables, d.Sessions)
	tableCtrl := controllers.NewTableController(d.Tables)
	orderCtrl := controllers.NewOrderController(d.Orders, d.Clock)
	callCtrl := controllers.NewWaiterCallController(d.Calls, d.Clock)
	notificationCtrl := controllers.NewNotificationController(d.DB)

	loginLimiter := middlewares.NewStrictRateLimiter()
	verifyLimiter := middlewares.NewStrictRateLimiter()

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", loginLimiter.RateLimit(), userCtrl.Login)

	// -- TABLE CLIENTS (session token in the body) --
	table := r.Group("/tables/:table_number")
	{
		table.POST("/verify", verifyLimiter.RateLimit(), sessionCtrl.VerifyTable)
		table.POST("/session/validate", sessionCtrl.ValidateSession)
		table.POST("/session/refresh", sessionCtrl.RefreshSession)
		table.POST("/orders", orderCtrl.CreateOrder)
		table.POST("/waiter-calls", callCtrl.CreateWaiterCall)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware(d.StaffTokens))
	auth.Use(middlewares.RequireRole("staff", "chef"))

	auth.GET("/profile", userCtrl.GetProfile)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.PATCH("/orders/:order_id", orderCtrl.UpdateOrderStatus)

	// WAITER CALLS
	auth.GET("/waiter-calls", callCtrl.GetAllWaiterCalls)
	auth.PATCH("/waiter-calls/:call_id", callCtrl.UpdateWaiterCallStatus)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:table_number/qrcode", tableCtrl.GetTableQRCode)
	auth.POST("/tables", middlewares.RequireRole("admin"), tableCtrl.CreateTable)

	// NOTIFICATIONS
	auth.GET("/notifications", notificationCtrl.GetNotifications)

	return r
}
