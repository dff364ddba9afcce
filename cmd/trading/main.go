// TradingService 主程序
// 功能：实时行情接入、限价单准入与撮合成交、账户与持仓管理
// 架构：基于 DDD + WebSocket 行情网关 + Kafka 行情推送
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	accountapp "github.com/stockr/trading/internal/account/application"
	accountdomain "github.com/stockr/trading/internal/account/domain"
	accountpersistence "github.com/stockr/trading/internal/account/infrastructure/persistence"
	accounthttp "github.com/stockr/trading/internal/account/interfaces/http"
	mdapp "github.com/stockr/trading/internal/marketdata/application"
	mddomain "github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/internal/marketdata/infrastructure/kis"
	"github.com/stockr/trading/internal/marketdata/infrastructure/messaging"
	mdpersistence "github.com/stockr/trading/internal/marketdata/infrastructure/persistence"
	mdhttp "github.com/stockr/trading/internal/marketdata/interfaces/http"
	stockdomain "github.com/stockr/trading/internal/stock/domain"
	stockpersistence "github.com/stockr/trading/internal/stock/infrastructure/persistence"
	tradingapp "github.com/stockr/trading/internal/trading/application"
	tradingdomain "github.com/stockr/trading/internal/trading/domain"
	tradingpersistence "github.com/stockr/trading/internal/trading/infrastructure/persistence"
	tradinghttp "github.com/stockr/trading/internal/trading/interfaces/http"
	"github.com/stockr/trading/pkg/cache"
	"github.com/stockr/trading/pkg/config"
	"github.com/stockr/trading/pkg/db"
	"github.com/stockr/trading/pkg/logger"
	"github.com/stockr/trading/pkg/metrics"
	"github.com/stockr/trading/pkg/middleware"
	"github.com/stockr/trading/pkg/mq"
)

func main() {
	// 1. 加载配置
	configPath := "configs/trading/config.toml"
	if v := os.Getenv("APP_CONFIG"); v != "" {
		configPath = v
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting TradingService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	dbCfg := db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}
	database, err := db.Init(dbCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&accountdomain.Account{},
		&stockdomain.Stock{},
		&stockdomain.StockHolding{},
		&tradingdomain.LimitOrder{},
		&tradingdomain.TradeLog{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 4. 初始化 Redis
	redisCfg := cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisCache, err := cache.New(redisCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化 Kafka 生产者
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	// 6. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	if err := metricsInstance.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics HTTP server", "error", err)
		}
	}

	// 7. 初始化仓储
	accountRepo := accountpersistence.NewAccountRepository(database)
	stockRepo := stockpersistence.NewStockRepository(database)
	holdingRepo := stockpersistence.NewStockHoldingRepository(database)
	orderRepo := tradingpersistence.NewLimitOrderRepository(database)
	tradeLogRepo := tradingpersistence.NewTradeLogRepository(database)
	quoteCache := mdpersistence.NewRedisQuoteCache(redisCache)
	quotePublisher := messaging.NewKafkaQuotePublisher(producer, cfg.Kafka.QuoteTopic, cfg.Kafka.OrderBookTopic)

	// 8. 初始化应用服务
	executionService := tradingapp.NewExecutionService(
		database, orderRepo, tradeLogRepo, accountRepo, holdingRepo, metricsInstance)
	matchingService := tradingapp.NewMatchingService(
		stockRepo, orderRepo, executionService, metricsInstance)
	quoteQueryService := mdapp.NewQuoteQueryService(quoteCache)
	orderService := tradingapp.NewOrderService(
		database, orderRepo, tradeLogRepo, accountRepo, stockRepo, holdingRepo,
		quoteQueryService, executionService, metricsInstance)
	accountService := accountapp.NewAccountService(database, accountRepo, holdingRepo)

	// 9. 初始化行情网关客户端与分发器
	quoteRouter := mdapp.NewQuoteRouter(quoteCache, quotePublisher, matchingService, metricsInstance)
	feedClient := kis.NewClient(kis.Config{
		URL:            cfg.Feed.WSURL,
		AppKey:         cfg.Feed.AppKey,
		AppSecret:      cfg.Feed.AppSecret,
		CustType:       cfg.Feed.CustType,
		OrderBookTRID:  cfg.Feed.OrderBookTRID,
		PingInterval:   time.Duration(cfg.Feed.PingInterval) * time.Second,
		ReconnectDelay: time.Duration(cfg.Feed.ReconnectDelay) * time.Second,
	}, func(ctx context.Context, quote *mddomain.Quote, book *mddomain.OrderBook) {
		quoteRouter.Route(ctx, quote, book)
	}, metricsInstance)
	subscriptionService := mdapp.NewSubscriptionService(feedClient, quoteCache)

	// 10. 连接行情网关并恢复订阅
	// 连接失败时客户端内部按配置延迟自动重连，服务照常启动
	if err := feedClient.Connect(); err != nil {
		logger.Error(ctx, "Initial feed connection failed, will retry", "error", err)
	} else if err := subscriptionService.RestoreSubscriptions(ctx); err != nil {
		logger.Error(ctx, "Failed to restore subscriptions", "error", err)
	}
	defer feedClient.Close()

	// 11. 创建并启动 HTTP 服务器
	httpServer := createHTTPServer(cfg, metricsInstance, orderService, accountService, subscriptionService, quoteQueryService)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		logger.Info(ctx, "Starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 12. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down TradingService")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	logger.Info(ctx, "TradingService stopped")
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(
	cfg *config.Config,
	m *metrics.Metrics,
	orderService *tradingapp.OrderService,
	accountService *accountapp.AccountService,
	subscriptionService *mdapp.SubscriptionService,
	quoteQueryService *mdapp.QuoteQueryService,
) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 添加中间件
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(m))

	// 注册路由
	api := router.Group("/api/v1")
	tradinghttp.NewHandler(orderService).RegisterRoutes(api)
	accounthttp.NewHandler(accountService).RegisterRoutes(api)
	mdhttp.NewHandler(subscriptionService, quoteQueryService).RegisterRoutes(api)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}
