package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/caltrack/config"
	"github.com/cppla/caltrack/controllers"
	"github.com/cppla/caltrack/metrics"
	"github.com/cppla/caltrack/middleware"
	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

const (
	apiPrefix = "/api/v1"
	// RPCPrefix is where the remote procedures are mounted.
	RPCPrefix = apiPrefix + "/rpc"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, svc *services.CalorieService) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Logger.Sugar().Warnf("gin access log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", utils.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", utils.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestID())
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	entryController := controllers.NewEntryController(svc)
	foodItemController := controllers.NewFoodItemController(svc)
	statsController := controllers.NewStatsController(svc)

	r.GET("/health", statsController.Healthcheck)

	// One limiter covers /api/v1 and the nested rpc group so each client has a single budget.
	api := r.Group(apiPrefix)
	api.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
	api.GET("/stats", statsController.GetStats)

	rpc := api.Group("/rpc")

	query := func(name string, h gin.HandlerFunc) {
		rpc.GET("/"+name, middleware.Procedure(controllers.ProcedureKey, name), h)
	}
	mutation := func(name string, h gin.HandlerFunc) {
		rpc.POST("/"+name, middleware.Procedure(controllers.ProcedureKey, name), h)
	}

	query("healthcheck", statsController.Healthcheck)
	query("getDailyCalorieEntries", entryController.GetDailyCalorieEntries)
	query("getDailyCalorieEntryWithFoodItems", entryController.GetDailyCalorieEntryWithFoodItems)
	mutation("createDailyCalorieEntry", entryController.CreateDailyCalorieEntry)
	mutation("updateDailyCalorieEntry", entryController.UpdateDailyCalorieEntry)
	mutation("deleteDailyCalorieEntry", entryController.DeleteDailyCalorieEntry)

	query("getFoodItemsByDailyEntry", foodItemController.GetFoodItemsByDailyEntry)
	mutation("createFoodItem", foodItemController.CreateFoodItem)
	mutation("updateFoodItem", foodItemController.UpdateFoodItem)
	mutation("deleteFoodItem", foodItemController.DeleteFoodItem)

	r.NoMethod(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})
	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, RPCPrefix+"/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "procedure not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
