package router

import (
	"log"
	"net/http"
	"time"

	"stylit/config"
	"stylit/internal/handler"
	"stylit/internal/jobqueue"
	"stylit/internal/middleware"
	"stylit/internal/repository"
	"stylit/internal/service"
	"stylit/internal/ws"
	"stylit/pkg/cloudinary"
	"stylit/pkg/imagegen"
	"stylit/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup wires repositories, services, the generation worker queue, and all
// routes. The returned queue must be stopped on shutdown.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, *jobqueue.Queue) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	lookRepo := repository.NewLookRepository(db)
	imageRepo := repository.NewLookImageRepository(db)
	itemRepo := repository.NewItemRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	lookHub := ws.NewLookHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, fcmSvc)
	creditSvc := service.NewCreditService(userRepo, notifSvc)

	var mpesaProvider payment.Provider
	if cfg.Mpesa.Email != "" {
		mpesaProvider = payment.NewLiberecMpesaProvider(cfg.Mpesa.BaseURL, cfg.Mpesa.Email, cfg.Mpesa.Password, cfg.Mpesa.WebhookBaseURL)
	} else {
		log.Printf("[MPESA] no credentials configured, using stub provider")
		mpesaProvider = &payment.StubProvider{}
	}
	purchaseSvc := service.NewPurchaseService(purchaseRepo, packageRepo, userRepo, creditSvc, mpesaProvider, notifSvc)

	var renderProvider imagegen.Provider
	if cfg.Generation.ProviderURL != "" {
		renderProvider = imagegen.NewHTTPProvider(cfg.Generation.ProviderURL, cfg.Generation.ProviderAPIKey)
	} else {
		log.Printf("[WORKER] no render api configured, using stub provider")
		renderProvider = &imagegen.StubProvider{}
	}
	genSvc := service.NewGenerationService(lookRepo, imageRepo, userRepo, itemRepo, renderProvider, cloud, notifSvc, lookHub, cfg.Generation.ImageTTL)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	queue := jobqueue.NewQueue(redisClient, cfg.Generation.Workers, genSvc.Process)
	queue.Start()

	lookSvc := service.NewLookService(lookRepo, itemRepo, imageRepo, creditSvc, queue)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(userRepo)
	creditHandler := handler.NewCreditHandler(creditSvc, purchaseSvc, packageRepo)
	lookHandler := handler.NewLookHandler(lookSvc)
	itemHandler := handler.NewItemHandler(itemRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	mpesaWebhookHandler := handler.NewMpesaWebhookHandler(purchaseSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/items", authMw, itemHandler.List)

		credits := api.Group("/credits")
		credits.Use(authMw)
		{
			credits.GET("", creditHandler.GetBalance)
			credits.GET("/packages", creditHandler.ListPackages)
			credits.POST("/purchase", creditHandler.InitiatePurchase)
			credits.GET("/purchase/:id", creditHandler.GetPurchaseStatus)
		}

		looks := api.Group("/looks")
		looks.Use(authMw)
		{
			looks.POST("", lookHandler.Create)
			looks.GET("/:public_id", lookHandler.Get)
			looks.POST("/:public_id/recreate", lookHandler.Recreate)
			looks.POST("/:public_id/retry", lookHandler.Retry)
			looks.GET("/:public_id/status", lookHandler.Status)
			looks.POST("/:public_id/save", lookHandler.Save)
			looks.POST("/:public_id/discard", lookHandler.Discard)
			looks.POST("/:public_id/restore", lookHandler.Restore)
			looks.PATCH("/:public_id/sharing", lookHandler.SetSharing)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PATCH("/photo", meHandler.UpdatePhoto)
			me.POST("/fcm-token", meHandler.RegisterFCMToken)
			me.GET("/looks", lookHandler.ListMine)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		api.POST("/webhooks/mpesa", mpesaWebhookHandler.Handle)
	}

	r.GET("/ws/looks", ws.UpgradeLookWS(&cfg.JWT, lookHub))

	return r, queue
}
