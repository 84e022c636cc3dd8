package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"swapp/api/internal/api/handlers"
	"swapp/api/internal/api/middleware"
	"swapp/api/internal/auth"
	"swapp/api/internal/config"
	"swapp/api/internal/logging"
	"swapp/api/internal/push"
	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// Services bundles what the HTTP handlers depend on.
type Services struct {
	Catalog       services.ICatalogService
	Items         services.IItemService
	Candidates    services.ICandidateService
	Conflicts     services.IConflictService
	Negotiation   services.INegotiationService
	Notifications services.INotificationService
	Threads       services.IThreadService
	Profiles      services.IProfileService
	Preferences   services.IPreferenceService
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	r := gin.New()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Order matters: the request id must exist before anything logs.
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	catalogHandler := handlers.NewCatalogHandler(svc.Catalog)
	itemHandler := handlers.NewItemHandler(svc.Items, svc.Candidates, svc.Conflicts)
	transactionHandler := handlers.NewTransactionHandler(svc.Negotiation)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Negotiation)
	threadHandler := handlers.NewThreadHandler(svc.Threads)
	profileHandler := handlers.NewProfileHandler(svc.Profiles, svc.Preferences, svc.Items)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		public := v1.Group("/")
		public.Use(rateLimiter.Limit())
		{
			public.GET("/categories", catalogHandler.ListCategories)
			public.GET("/subcategories", catalogHandler.ListSubcategories)
			public.GET("/tags", catalogHandler.ListTags)
		}

		// The limiter runs after auth so authenticated callers get a bucket per user.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), rateLimiter.Limit())
		{
			authRequired.POST("/categories", catalogHandler.CreateCategory)
			authRequired.POST("/subcategories", catalogHandler.CreateSubcategory)
			authRequired.POST("/tags", catalogHandler.CreateTag)

			authRequired.GET("/items", itemHandler.Overview)
			authRequired.POST("/items", itemHandler.CreateItem)
			authRequired.GET("/items/conflicts", itemHandler.Conflicts)
			authRequired.POST("/items/conflicts/resolve", itemHandler.ResolveConflicts)
			authRequired.GET("/items/:id", itemHandler.GetItem)
			authRequired.PUT("/items/:id", itemHandler.UpdateItem)
			authRequired.DELETE("/items/:id", itemHandler.DeleteItem)
			authRequired.POST("/items/:id/view", itemHandler.ViewItem)
			authRequired.GET("/items/:id/matches", itemHandler.ItemMatches)

			authRequired.POST("/transactions", transactionHandler.Propose)
			authRequired.GET("/transactions/pending", transactionHandler.Pending)
			authRequired.GET("/transactions/history", transactionHandler.History)
			authRequired.GET("/transactions/swaps", transactionHandler.SwapHistory)

			authRequired.GET("/notifications", notificationHandler.List)
			authRequired.POST("/notifications/respond", notificationHandler.Respond)
			authRequired.GET("/notifications/:id", notificationHandler.Detail)
			authRequired.POST("/notifications/:id/read", notificationHandler.MarkRead)

			authRequired.GET("/threads", threadHandler.List)
			authRequired.POST("/threads", threadHandler.GetOrCreate)
			authRequired.GET("/threads/:id", threadHandler.Detail)
			authRequired.POST("/threads/:id/messages", threadHandler.SendMessage)

			authRequired.GET("/profile", profileHandler.GetProfile)
			authRequired.PUT("/profile", profileHandler.UpdateProfile)
			authRequired.POST("/profile/location", profileHandler.ChangeLocation)
			authRequired.POST("/profile/device", profileHandler.StoreDevice)
			authRequired.GET("/profile/preferences", profileHandler.GetPreferences)
			authRequired.PUT("/profile/preferences", profileHandler.ReplacePreferences)
		}
	}

	return r
}

// SetupServiceRouter configures the internal service Gin engine: a JSON method
// endpoint for operators and test harnesses plus the Prometheus scrape endpoint.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, profiles services.IProfileService, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logging.Info().Msg("shutdown requested via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logging.Warn().Msg("shutdown already signaled")
			}

		case "issueToken":
			var args []string // [userID]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [userID]"})
				return
			}
			userID, err := utils.ParseSixID(args[0])
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user id"})
				return
			}
			if _, err := profiles.FindByID(c.Request.Context(), userID); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
				return
			}
			token, err := auth.GenerateJWT(userID, cfg.JwtSecret, cfg.JwtTTL)
			if err != nil {
				logging.Err(err).Msg("service API: issuing token")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"token": token}})

		case "createUser":
			var args []string // [name, phone]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [name, phone]"})
				return
			}
			user, err := profiles.CreateUser(c.Request.Context(), args[0], args[1])
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			token, err := auth.GenerateJWT(user.ID, cfg.JwtSecret, cfg.JwtTTL)
			if err != nil {
				logging.Err(err).Msg("service API: issuing token")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": gin.H{"user": user, "token": token}})

		case "getTestPush":
			if !cfg.MockServices {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "getTestPush requires MOCK_SERVICES"})
				return
			}
			var args []string // [userID]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [userID]"})
				return
			}
			userID, err := utils.ParseSixID(args[0])
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user id"})
				return
			}
			device, err := profiles.FindDevice(c.Request.Context(), userID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Device lookup failed"})
				return
			}
			if device == nil {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User has no registered device"})
				return
			}

			data, err := pollMockPush(c.Request.Context(), rdb, push.MockKey(device.Token))
			if err != nil {
				if errors.Is(err, redis.Nil) {
					c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test push not found for user %s", userID)})
					return
				}
				logging.Err(err).Msg("service API: reading test push")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": data})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// pollMockPush waits briefly for a mock push to appear under key, then consumes it.
// It returns redis.Nil when nothing arrived in time.
func pollMockPush(ctx context.Context, rdb *redis.Client, key string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for i := 0; i < 10; i++ {
		raw, err := rdb.GetDel(ctx, key).Result()
		if err == nil {
			var data map[string]any
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return nil, fmt.Errorf("decoding stored push: %w", err)
			}
			return data, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, redis.Nil
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil, redis.Nil
}
