package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/catalog"
	v1Grpc "github.com/DRSN-tech/shop-assistant/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/shop-assistant/internal/delivery/v1/http"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure/auth"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure/kafka"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure/llm"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure/markdown"
	minioInfra "github.com/DRSN-tech/shop-assistant/internal/infrastructure/minio"
	ml_service "github.com/DRSN-tech/shop-assistant/internal/infrastructure/ml-service"
	"github.com/DRSN-tech/shop-assistant/internal/infrastructure/receipt"
	s3Repo "github.com/DRSN-tech/shop-assistant/internal/repository/minio"
	"github.com/DRSN-tech/shop-assistant/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/shop-assistant/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/shop-assistant/internal/repository/qdrant"
	"github.com/DRSN-tech/shop-assistant/internal/repository/redis"
	redisConv "github.com/DRSN-tech/shop-assistant/internal/repository/redis/converter"
	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/closer"
	"github.com/DRSN-tech/shop-assistant/pkg/clients"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/postgres"
	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jimlawless/whereami"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	initTimeout      = 10 * time.Second
	shutdownTimeout  = 10 * time.Second
	forcedTimeout    = 3 * time.Second
	topicTimeout     = 10 * time.Second
	defaultImageSize = 256
)

// App держит собранные зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	// отменяется при остановке, фоновые задачи завершаются по нему
	ctx    context.Context
	cancel context.CancelFunc

	catalogUC    *usecase.CatalogUseCase
	httpSrv      *v1Http.Server
	grpcSrv      *v1Grpc.GRPCServer
	outboxWorker *kafka.OutboxWorker
}

// NewApp поднимает подключения к хранилищам и собирает usecase'ы. При ошибке
// уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(forcedTimeout),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		cancel()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if cerr := a.closer.Close(closeCtx); cerr != nil {
			logger.Warnf("close after failed init: %v", cerr)
		}
		return nil, err
	}

	return a, nil
}

func (a *App) init() error {
	cfg, logger := a.cfg, a.logger

	db, err := initPGDB(a.ctx, logger, cfg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddSimple("postgres", func() error { db.Close(); return nil })

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverter())
	userRepo := pgdb.NewUserRepo(db.Pool, pgdbConv.NewUserConverter())
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.NewOrderConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())

	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.AddSimple("redis", redisClient.Close)
	redisCtx, redisCancel := context.WithTimeout(a.ctx, initTimeout)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return e.Wrap("failed to connect to redis", err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewRecommendationsConverter(), cfg.Redis, logger)
	cartRepo := redis.NewCartRepo(redisClient, cfg.Redis, logger)

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return e.Wrap("failed to initialize qdrant", err)
	}
	a.closer.AddSimple("qdrant", qdrantClient.Close)
	qdrantCtx, qdrantCancel := context.WithTimeout(a.ctx, initTimeout)
	defer qdrantCancel()
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		return e.Wrap("failed to initialize qdrant collection", err)
	}
	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return e.Wrap("failed to initialize minio client", err)
	}
	minioCtx, minioCancel := context.WithTimeout(a.ctx, initTimeout)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return e.Wrap("failed to initialize minio bucket", err)
	}
	objectRepo := s3Repo.NewObjectRepo(minioClient, cfg.Minio)
	objects := minioInfra.NewMinioInfrastructure(objectRepo, cfg.Minio.BucketName, 0, logger, a.ctx)
	a.closer.Add("minio background tasks", objects.WaitForCleanup)

	conn, err := grpc.NewClient(
		cfg.Ml.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()), // явное указание gRPC-клиенту использовать НЕзащищённое соединение (без TLS).
	)
	if err != nil {
		return e.Wrap("failed to initialize grpc client", err)
	}
	a.closer.AddSimple("ml grpc conn", conn.Close)

	ml := ml_service.NewMLService(conn, ml_service.Options{
		Model:          cfg.Ml.Model,
		MaxConcurrent:  cfg.Ml.MaxConcurrent,
		MaxRetries:     cfg.Ml.MaxRetries,
		RequestTimeout: cfg.Ml.RequestTimeout,
	}, logger)
	encoder := ml_service.NewCachedEncoder(ml, embRepo, cfg.Ml.Model, logger)

	imageCacheSize := cfg.Ml.ImageCacheSize
	if imageCacheSize <= 0 {
		imageCacheSize = defaultImageSize
	}
	imageCache, err := lru.New[string, []float32](imageCacheSize)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		return e.Wrap("failed to initialize kafka producer", err)
	}
	a.closer.AddSimple("kafka producer", producer.Close)
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		// топики могут создаваться автоматически брокером
		logger.Warnf("failed to ensure kafka topics: %v", err)
	}

	publisher := kafka.NewAnalyticsPublisher(producer, cfg.Kafka.AnalyticsTopic, logger)
	a.closer.Add("analytics publisher", publisher.Close)

	a.outboxWorker = kafka.NewOutboxWorker(outboxRepo, logger, producer, cfg.Kafka.Topic, db.Dsn)
	a.closer.AddSimple("outbox worker", func() error { a.outboxWorker.Stop(); return nil })

	source, syncRepo := catalogSource(cfg.Catalog, productRepo)
	a.catalogUC = usecase.NewCatalogUC(
		catalog.NewLoader(source, cfg.Catalog.AllowEmpty, logger),
		syncRepo,
		encoder,
		cacheRepo,
		objects,
		publisher,
		imageCache,
		logger,
		usecase.CatalogUseCaseCfg{
			DefaultLimit:        cfg.Catalog.DefaultLimit,
			MaxLimit:            cfg.Catalog.MaxLimit,
			VisualMatchMinScore: cfg.Catalog.VisualMatchMinScore,
			MaxImagePixels:      cfg.Catalog.MaxImagePixels,
			EncodeConcurrency:   cfg.Ml.MaxConcurrent,
		},
	)

	llmClient := llm.NewClient(cfg.LLM, logger)
	uc := v1Http.UseCases{
		Catalog:   a.catalogUC,
		Review:    usecase.NewReviewUC(llmClient, logger),
		Assistant: usecase.NewAssistantUC(llmClient, markdown.NewRenderer(), logger),
		Account:   usecase.NewAccountUC(userRepo, auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), logger),
		Cart:      usecase.NewCartUC(cartRepo, a.catalogUC, productRepo, orderRepo, outboxRepo, db.Pool, logger),
		Order:     usecase.NewOrderUC(orderRepo, objectRepo, objects, receipt.NewRenderer(), cfg.Minio.BucketName, cfg.Minio.PresignTTL, logger),
	}

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)
	a.grpcSrv.RegisterServices(a.catalogUC)
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, cfg.Http, cfg.Catalog.AdminToken, logger).Init(uc)
	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.closer.Add("http server", a.httpSrv.Stop)

	return nil
}

// Run запускает серверы, строит индекс каталога в фоне и блокируется до сигнала
// остановки или фатальной ошибки.
func (a *App) Run() error {
	defer a.cancel()

	errCh := make(chan error, 3)

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- e.Wrap("HTTP server failed", err)
		}
	}()

	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server failed", err)
		}
	}()

	a.outboxWorker.Start(a.ctx)

	// До публикации индекса запросы каталога получают 503
	go func() {
		if _, err := a.catalogUC.Build(a.ctx); err != nil {
			errCh <- e.Wrap("catalog index build failed", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "fatal error, shutting down")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("shutdown timeout: %v", err)
		} else {
			a.logger.Errorf(err, "shutdown error")
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// catalogSource выбирает источник каталога. Файловый каталог синхронизируется в Postgres,
// чтобы по нему вёлся склад; при чтении из Postgres синхронизировать нечего.
func catalogSource(cfg *config.CatalogCfg, productRepo *pgdb.ProductRepo) (catalog.Source, usecase.ProductRepository) {
	if cfg.Source == config.CatalogSourcePostgres {
		return productRepo, nil
	}
	return catalog.NewFileSource(cfg.FilePath), productRepo
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
