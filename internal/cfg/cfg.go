package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// k хранит итоговые значения: YAML-файл из CONFIG_FILE, поверх него переменные окружения.
var k = koanf.New(".")

type Config struct {
	Minio   *MinIOCfg
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Db      *PGDBCfg
	Qdrant  *QdrantCfg
	Redis   *RedisCfg
	Ml      *MLServiceCfg
	Kafka   *KafkaCfg
	Catalog *CatalogCfg
	LLM     *LLMCfg
	Auth    *AuthCfg
}

type KafkaCfg struct {
	Topic             string
	AnalyticsTopic    string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string        // Адрес конечной точки Minio
	BucketName        string        // Название бакета для квитанций и загруженных фото
	MinioRootUser     string        // Имя пользователя для доступа к Minio
	MinioRootPassword string        // Пароль для доступа к Minio
	MinioUseSSL       bool          // Подключение к Minio по TLS
	PresignTTL        time.Duration // Время жизни ссылки на скачивание квитанции
}

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AllowedOrigins  []string
	LLMRateLimit    int // запросов в минуту на IP для эндпоинтов, ходящих в LLM
	MaxUploadSizeMB int64
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции с эмбеддингами названий товаров
	UseTLS               bool
	VectorSize           uint64
}

type RedisCfg struct {
	Addr              string
	Password          string
	User              string
	DB                int
	MaxRetries        int
	DialTimeout       time.Duration
	Timeout           time.Duration
	RecommendationTTL time.Duration
	CartTTL           time.Duration
}

type MLServiceCfg struct {
	Addr           string
	Model          string
	MaxConcurrent  int
	MaxRetries     int
	RequestTimeout time.Duration
	ImageCacheSize int
}

// CatalogCfg описывает источник каталога и параметры поиска.
type CatalogCfg struct {
	Source              string // file | postgres
	FilePath            string
	AllowEmpty          bool
	DefaultLimit        int
	MaxLimit            int
	VisualMatchMinScore float64
	MaxImagePixels      int64
	AdminToken          string
}

type LLMCfg struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type AuthCfg struct {
	JWTSecret string
	TokenTTL  time.Duration
}

const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	if err := loadSources(log); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	llm, err := loadLLMCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	auth, err := loadAuthCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:   minio,
		Http:    http,
		Grpc:    loadGRPCConfig(),
		Db:      db,
		Qdrant:  qdrant,
		Redis:   redis,
		Ml:      ml,
		Kafka:   kafka,
		Catalog: catalog,
		LLM:     llm,
		Auth:    auth,
	}, nil
}

// loadSources заполняет k: .env (если есть), YAML-файл из CONFIG_FILE, затем окружение.
func loadSources(log logger.Logger) error {
	k = koanf.New(".")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to read .env: %v", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return e.Wrap(path, err)
		}
	}

	// Ключи совпадают с именами переменных окружения, поэтому точка-разделитель в них не встречается.
	return k.Load(env.Provider("", ".", func(s string) string { return s }), nil)
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultAnalyticsTopic    = "shop.analytics"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	topic := getEnv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           splitList(brokerStr),
		Topic:             topic,
		AnalyticsTopic:    getEnvOrDefault("KAFKA_ANALYTICS_TOPIC", defaultAnalyticsTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL     = false
		defaultEndpoint   = "minio:9000"
		defaultBucket     = "shop-assistant"
		defaultPresignTTL = 24 * time.Hour
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	presignTTL, err := parseDurationEnv("MINIO_PRESIGN_TTL", defaultPresignTTL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_PRESIGN_TTL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PresignTTL:        presignTTL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort            = "8000"
		defaultReadTimeout     = 10 * time.Second
		defaultWriteTimeout    = 60 * time.Second
		defaultIdleTimeout     = 60 * time.Second
		defaultAllowedOrigins  = "*"
		defaultLLMRateLimit    = 30
		defaultMaxUploadSizeMB = 15
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	rateLimit, err := parseIntEnv("LLM_RATE_LIMIT", defaultLLMRateLimit)
	if err != nil {
		log.Errorf(err, "invalid LLM_RATE_LIMIT")
		return nil, err
	}

	maxUpload, err := parseIntEnv("MAX_UPLOAD_SIZE_MB", defaultMaxUploadSizeMB)
	if err != nil {
		log.Errorf(err, "invalid MAX_UPLOAD_SIZE_MB")
		return nil, err
	}

	return &HTTPConfig{
		Port:            getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		AllowedOrigins:  splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins)),
		LLMRateLimit:    rateLimit,
		MaxUploadSizeMB: int64(maxUpload),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultHost           = "qdrant"
		defaultUseTLS         = false
		defaultCollection     = "product_name_embeddings"
		defaultVectorSize     = "512" // clip-ViT-B-32
	)

	port, err := strconv.Atoi(getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := strconv.ParseUint(getEnvOrDefault("VECTOR_SIZE", defaultVectorSize), 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", defaultHost),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr              = "localhost:6379"
		defaultDB                = 0
		defaultMaxRetries        = 3
		defaultDialTimeout       = 5 * time.Second
		defaultReadTimeout       = 3 * time.Second
		defaultWriteTimeout      = 3 * time.Second
		defaultRecommendationTTL = 10 * time.Minute
		defaultCartTTL           = 7 * 24 * time.Hour
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	recTTL, err := parseDurationEnv("RECOMMENDATION_TTL", defaultRecommendationTTL)
	if err != nil {
		log.Errorf(err, "invalid RECOMMENDATION_TTL")
		return nil, err
	}

	cartTTL, err := parseDurationEnv("CART_TTL", defaultCartTTL)
	if err != nil {
		log.Errorf(err, "invalid CART_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:              getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:          getEnv("REDIS_PASSWORD"),
		User:              getEnv("REDIS_USER"),
		DB:                db,
		MaxRetries:        maxRetries,
		DialTimeout:       dialTimeout,
		Timeout:           max(readTimeout, writeTimeout),
		RecommendationTTL: recTTL,
		CartTTL:           cartTTL,
	}, nil
}

func loadMLServiceCfg() (*MLServiceCfg, error) {
	const (
		defaultHost           = "ml-service"
		defaultPort           = "50051"
		defaultModel          = "clip-ViT-B-32"
		defaultMaxConcurrent  = 8
		defaultMaxRetries     = 3
		defaultRequestTimeout = 15 * time.Second
		defaultImageCacheSize = 256
	)

	maxConcurrent, err := parseIntEnv("ML_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		return nil, e.Wrap("ML_MAX_CONCURRENT", err)
	}

	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("ML_MAX_RETRIES", err)
	}

	timeout, err := parseDurationEnv("ML_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		return nil, e.Wrap("ML_REQUEST_TIMEOUT", err)
	}

	cacheSize, err := parseIntEnv("ML_IMAGE_CACHE_SIZE", defaultImageCacheSize)
	if err != nil {
		return nil, e.Wrap("ML_IMAGE_CACHE_SIZE", err)
	}

	return &MLServiceCfg{
		Addr:           getEnvOrDefault("ML_HOST", defaultHost) + ":" + getEnvOrDefault("ML_PORT", defaultPort),
		Model:          getEnvOrDefault("ML_MODEL", defaultModel),
		MaxConcurrent:  maxConcurrent,
		MaxRetries:     maxRetries,
		RequestTimeout: timeout,
		ImageCacheSize: cacheSize,
	}, nil
}

func loadCatalogCfg(log logger.Logger) (*CatalogCfg, error) {
	const (
		defaultSource     = CatalogSourceFile
		defaultFilePath   = "data/products.json"
		defaultAllowEmpty = false
		defaultLimit      = 3
		defaultMaxLimit   = 50
		defaultMinScore   = "0"
		defaultMaxPixels  = 40_000_000
	)

	source := strings.ToLower(getEnvOrDefault("CATALOG_SOURCE", defaultSource))
	if source != CatalogSourceFile && source != CatalogSourcePostgres {
		err := fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", CatalogSourceFile, CatalogSourcePostgres, source)
		log.Errorf(err, "invalid CATALOG_SOURCE")
		return nil, err
	}

	allowEmpty, err := strconv.ParseBool(getEnvOrDefault("CATALOG_ALLOW_EMPTY", strconv.FormatBool(defaultAllowEmpty)))
	if err != nil {
		log.Errorf(err, "invalid CATALOG_ALLOW_EMPTY")
		return nil, err
	}

	limit, err := parseIntEnv("RECOMMENDATION_LIMIT", defaultLimit)
	if err != nil {
		log.Errorf(err, "invalid RECOMMENDATION_LIMIT")
		return nil, err
	}

	maxLimit, err := parseIntEnv("RECOMMENDATION_MAX_LIMIT", defaultMaxLimit)
	if err != nil {
		log.Errorf(err, "invalid RECOMMENDATION_MAX_LIMIT")
		return nil, err
	}

	minScore, err := strconv.ParseFloat(getEnvOrDefault("VISUAL_MATCH_MIN_SCORE", defaultMinScore), 64)
	if err != nil {
		log.Errorf(err, "invalid VISUAL_MATCH_MIN_SCORE")
		return nil, err
	}

	maxPixels, err := parseIntEnv("MAX_IMAGE_PIXELS", defaultMaxPixels)
	if err != nil {
		log.Errorf(err, "invalid MAX_IMAGE_PIXELS")
		return nil, err
	}

	return &CatalogCfg{
		Source:              source,
		FilePath:            getEnvOrDefault("CATALOG_FILE", defaultFilePath),
		AllowEmpty:          allowEmpty,
		DefaultLimit:        limit,
		MaxLimit:            maxLimit,
		VisualMatchMinScore: minScore,
		MaxImagePixels:      int64(maxPixels),
		AdminToken:          getEnv("ADMIN_TOKEN"),
	}, nil
}

func loadLLMCfg() (*LLMCfg, error) {
	const (
		defaultBaseURL = "https://api.groq.com/openai/v1"
		defaultModel   = "mistral-saba-24b"
		defaultTimeout = 30 * time.Second
	)

	timeout, err := parseDurationEnv("LLM_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("LLM_TIMEOUT", err)
	}

	return &LLMCfg{
		BaseURL: getEnvOrDefault("LLM_BASE_URL", defaultBaseURL),
		APIKey:  getEnv("GROQ_API_KEY"),
		Model:   getEnvOrDefault("LLM_MODEL", defaultModel),
		Timeout: timeout,
	}, nil
}

func loadAuthCfg() (*AuthCfg, error) {
	const defaultTokenTTL = 24 * time.Hour

	secret := getEnv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	ttl, err := parseDurationEnv("JWT_TTL", defaultTokenTTL)
	if err != nil {
		return nil, e.Wrap("JWT_TTL", err)
	}

	return &AuthCfg{
		JWTSecret: secret,
		TokenTTL:  ttl,
	}, nil
}

// getEnv возвращает значение параметра.
// Возвращает пустую строку, если параметр не задан.
func getEnv(key string) string {
	return strings.TrimSpace(k.String(key))
}

// getEnvOrDefault возвращает значение параметра или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := getEnv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := getEnv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
