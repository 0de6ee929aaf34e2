package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	accountapp "github.com/wyfcoding/tradingvenue/internal/account/application"
	accdomain "github.com/wyfcoding/tradingvenue/internal/account/domain"
	accounthttp "github.com/wyfcoding/tradingvenue/internal/account/interfaces/http"
	accountmysql "github.com/wyfcoding/tradingvenue/internal/account/infrastructure/persistence/mysql"
	marketdataapp "github.com/wyfcoding/tradingvenue/internal/marketdata/application"
	marketdatahttp "github.com/wyfcoding/tradingvenue/internal/marketdata/interfaces/http"
	orderapp "github.com/wyfcoding/tradingvenue/internal/order/application"
	orderdomain "github.com/wyfcoding/tradingvenue/internal/order/domain"
	ordermessaging "github.com/wyfcoding/tradingvenue/internal/order/infrastructure/messaging"
	orderhttp "github.com/wyfcoding/tradingvenue/internal/order/interfaces/http"
	ordermysql "github.com/wyfcoding/tradingvenue/internal/order/infrastructure/persistence/mysql"
	posdomain "github.com/wyfcoding/tradingvenue/internal/position/domain"
	positionapp "github.com/wyfcoding/tradingvenue/internal/position/application"
	positionhttp "github.com/wyfcoding/tradingvenue/internal/position/interfaces/http"
	positionmysql "github.com/wyfcoding/tradingvenue/internal/position/infrastructure/persistence/mysql"
	refdomain "github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	referencedataapp "github.com/wyfcoding/tradingvenue/internal/referencedata/application"
	referencedatahttp "github.com/wyfcoding/tradingvenue/internal/referencedata/interfaces/http"
	referencedatamysql "github.com/wyfcoding/tradingvenue/internal/referencedata/infrastructure/persistence/mysql"
	"github.com/wyfcoding/tradingvenue/pkg/config"
	"github.com/wyfcoding/tradingvenue/pkg/db"
	"github.com/wyfcoding/tradingvenue/pkg/idgen"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
	"github.com/wyfcoding/tradingvenue/pkg/metrics"
	"github.com/wyfcoding/tradingvenue/pkg/middleware"
	"github.com/wyfcoding/tradingvenue/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/venue/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting trading venue service",
		"service", cfg.ServiceName, "version", cfg.Version, "env", cfg.Environment)

	// 3. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&refdomain.Instrument{},
		&accdomain.TradingAccount{},
		&accdomain.LedgerEntry{},
		&orderdomain.Order{},
		&orderdomain.Execution{},
		&posdomain.Position{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate schema", "error", err)
	}

	// 4. 初始化 ID 生成器
	ids, err := idgen.New(cfg.Trading.IDNode)
	if err != nil {
		logger.Fatal(ctx, "Failed to init id generator", "error", err)
	}

	// 5. 初始化事件发布，未配置 broker 时降级为空实现
	var eventPublisher orderapp.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewProducer(mq.Config{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to init kafka producer", "error", err)
		}
		defer producer.Close()
		eventPublisher = ordermessaging.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	} else {
		logger.Warn(ctx, "No kafka brokers configured, order events disabled")
	}

	// 6. 初始化指标
	var venueMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		venueMetrics = metrics.New(cfg.ServiceName)
		if err := venueMetrics.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	// 7. 组装仓储与领域服务
	instrumentRepo := referencedatamysql.NewInstrumentRepository(database.DB)
	accountRepo := accountmysql.NewAccountRepository(database.DB)
	ledgerRepo := accountmysql.NewLedgerRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	executionRepo := ordermysql.NewExecutionRepository(database.DB)
	positionRepo := positionmysql.NewPositionRepository(database.DB)

	settlement := accdomain.NewCashSettlementService(ids)
	board := marketdataapp.NewBoard(time.Duration(cfg.MarketData.QuoteTTL) * time.Millisecond)

	// 8. 组装应用服务
	instrumentService := referencedataapp.NewInstrumentService(instrumentRepo, ids)
	accountService := accountapp.NewAccountService(accountRepo, ledgerRepo, settlement, database, ids)
	positionService := positionapp.NewPositionService(positionRepo)

	var quoteMetrics marketdataapp.MetricsRecorder
	var orderMetrics orderapp.MetricsRecorder
	if venueMetrics != nil {
		quoteMetrics = venueMetrics
		orderMetrics = venueMetrics
	}
	quoteService := marketdataapp.NewQuoteService(board, quoteMetrics)

	coordinator := orderapp.NewCoordinator(
		orderRepo, executionRepo,
		accountRepo, ledgerRepo,
		positionRepo, instrumentRepo,
		settlement, board, database, ids,
		eventPublisher, orderMetrics,
		cfg.Trading.FlatFeeDecimal(), cfg.Trading.Venue,
	)
	orderQueryService := orderapp.NewQueryService(orderRepo, executionRepo)

	// 行情 tick 驱动挂单重估
	board.OnTick(coordinator.OnQuote)

	// 9. 初始化 HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	referencedatahttp.NewHandler(instrumentService).RegisterRoutes(router)
	marketdatahttp.NewHandler(quoteService).RegisterRoutes(router)
	accounthttp.NewHandler(accountService).RegisterRoutes(router)
	positionhttp.NewHandler(positionService).RegisterRoutes(router)
	orderhttp.NewHandler(coordinator, orderQueryService).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 10. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", "error", err)
	}

	logger.Info(ctx, "Server exited")
}
