package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/thr-api/internal/config"
	"github.com/yourusername/thr-api/internal/handler"
	"github.com/yourusername/thr-api/internal/middleware"
	pgRepo "github.com/yourusername/thr-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/thr-api/internal/repository/redis"
	"github.com/yourusername/thr-api/internal/service"
	ws "github.com/yourusername/thr-api/internal/websocket"
	"github.com/yourusername/thr-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	roomRepo := pgRepo.NewRoomRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	rewardRepo := pgRepo.NewRewardRepo(db)
	redemptionRepo := pgRepo.NewRedemptionRepo(db)
	txManager := pgRepo.NewTxManager(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// WebSocket-хаб для событий комнат
	hub := ws.NewHub()
	go hub.Run()

	// Рассылка отчетов сверки
	var mailer service.ReportMailer = &service.NoopReportMailer{}
	if cfg.Email.Enabled {
		resendMailer, err := service.NewResendReportMailer(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.To)
		if err != nil {
			log.Printf("Failed to initialize report mailer: %v", err)
			os.Exit(1)
		}
		mailer = resendMailer
	}

	// Инициализируем сервисы
	answerService := service.NewAnswerService(questionRepo, participantRepo, answerRepo, cacheRepo, txManager, hub)
	redemptionService := service.NewRedemptionService(participantRepo, rewardRepo, redemptionRepo, cacheRepo, txManager, hub)
	reconciliationService := service.NewReconciliationService(participantRepo, rewardRepo, answerRepo, redemptionRepo, txManager, mailer)

	// Инициализируем обработчики и middleware
	answerHandler := handler.NewAnswerHandler(answerService)
	redemptionHandler := handler.NewRedemptionHandler(redemptionService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService)
	wsHandler := handler.NewWSHandler(hub, roomRepo)

	adminAuth := middleware.NewAdminAuth(cfg.Auth.AdminJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RequestMetrics())

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Ответы на вопросы комнаты
		rooms := api.Group("/rooms/:id")
		rooms.Use(middleware.ExtractUintParam("id", "roomID"))
		{
			rooms.POST("/answers",
				rateLimiter.Limit(middleware.AnswerRateLimitConfig()),
				answerHandler.SubmitAnswer)
		}

		// Обмены рупий на призы
		redemptions := api.Group("/redemptions")
		{
			redemptions.POST("",
				rateLimiter.Limit(middleware.RedeemRateLimitConfig()),
				redemptionHandler.Redeem)

			redemptionWithID := redemptions.Group("/:id")
			redemptionWithID.Use(middleware.ExtractUintParam("id", "redemptionID"))
			{
				redemptionWithID.GET("", redemptionHandler.GetRedemption)
				redemptionWithID.PATCH("/status", adminAuth.Require(), redemptionHandler.SetStatus)
			}
		}

		// Системное списание всего баланса участника
		participants := api.Group("/participants/:id")
		participants.Use(middleware.ExtractUintParam("id", "participantID"))
		{
			participants.POST("/claim-all", adminAuth.Require(), redemptionHandler.ClaimFullBalance)
		}

		// Сверка леджера со счетчиками
		reconciliation := api.Group("/reconciliation")
		reconciliation.Use(adminAuth.Require())
		{
			reconciliation.GET("/scan", reconciliationHandler.Scan)
			reconciliation.POST("/repair", reconciliationHandler.Repair)
			reconciliation.GET("/export", reconciliationHandler.Export)
		}
	}

	// События комнат и метрики
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Фоновая периодическая сверка
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Reconcile.IntervalMinutes > 0 {
		go runPeriodicReconciliation(ctx, reconciliationService, cfg.Reconcile)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}

// runPeriodicReconciliation запускает скан (и опционально починку) по таймеру
func runPeriodicReconciliation(ctx context.Context, svc *service.ReconciliationService, cfg config.ReconcileConfig) {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Reconcile] Периодическая сверка включена: каждые %s (auto_repair=%t)", interval, cfg.AutoRepair)

	for {
		select {
		case <-ctx.Done():
			log.Println("[Reconcile] Периодическая сверка остановлена")
			return
		case <-ticker.C:
			if cfg.AutoRepair {
				if _, _, err := svc.ScanAndRepair(ctx); err != nil {
					log.Printf("[Reconcile] Ошибка цикла сверки: %v", err)
				}
				continue
			}
			if _, err := svc.Scan(ctx); err != nil {
				log.Printf("[Reconcile] Ошибка скана: %v", err)
			}
		}
	}
}
