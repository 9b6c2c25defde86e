package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	v1 "github.com/lyuyangh/explainaboard-web/internal/controller/http/v1"
	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
	"github.com/lyuyangh/explainaboard-web/internal/domain/usecase"
	psqlRepo "github.com/lyuyangh/explainaboard-web/internal/repository/psql"
	"github.com/lyuyangh/explainaboard-web/internal/repository/rabbitmq"
	redisRepo "github.com/lyuyangh/explainaboard-web/internal/repository/redis"
	s3Repo "github.com/lyuyangh/explainaboard-web/internal/repository/s3"
	"github.com/lyuyangh/explainaboard-web/pkg/client/psql"
	redisClientGo "github.com/lyuyangh/explainaboard-web/pkg/client/redis"
	s3ClientGo "github.com/lyuyangh/explainaboard-web/pkg/client/s3"
	"github.com/lyuyangh/explainaboard-web/pkg/middleware"
)

type Config struct {
	ListenAddr string

	RedisAddr string
	RedisDB   int

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	S3Host      string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	RabbitMQURL string

	RateLimit int
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	r := gin.Default()
	r.Use(middleware.AuthMiddleware())

	redisClient, _ := redisClientGo.NewRedisClient(ctx, redisClientGo.Config{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: redisClient,
		Limit:       cfg.RateLimit,
		Window:      time.Second,
		KeyPrefix:   "rl:",
	})
	r.Use(rl)

	db, err := psql.NewPostgresDB(psql.Config{
		Host:     cfg.PSQLHost,
		User:     cfg.PSQLUser,
		Password: cfg.PSQLPassword,
		DBName:   cfg.PSQLDBName,
		Port:     cfg.PSQLPort,
		SslMode:  cfg.PSQLSSLMode,
	})
	if err != nil {
		panic(err)
	}

	if err := db.AutoMigrate(&entity.System{}, &entity.Dataset{}, &entity.Benchmark{}); err != nil {
		panic(err)
	}

	systemRepo := psqlRepo.NewGormSystemRepo(db)
	datasetRepo := psqlRepo.NewGormDatasetRepo(db)
	benchmarkRepo := psqlRepo.NewGormBenchmarkRepo(db)
	statusRepo := redisRepo.NewRedisRepo(redisClient)

	s3Client, err := s3ClientGo.NewS3Client(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		panic(err)
	}
	storage := s3Repo.NewS3Repo(s3Client)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()

	publisher, err := rabbitmq.NewRabbitPublisher(conn, "systems.exchange", "system.created")
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	taskUC := usecase.NewTaskUseCase()
	systemUC := usecase.NewSystemUseCase(systemRepo, statusRepo, storage, publisher, statusRepo, taskUC)
	datasetUC := usecase.NewDatasetUseCase(datasetRepo)
	benchmarkUC := usecase.NewBenchmarkUseCase(benchmarkRepo, systemRepo, statusRepo)

	systemHandler := v1.NewSystemHandler(systemUC)
	datasetHandler := v1.NewDatasetHandler(datasetUC)
	benchmarkHandler := v1.NewBenchmarkHandler(benchmarkUC)
	metaHandler := v1.NewMetaHandler(taskUC)

	v1Group := r.Group("/api/v1")
	{
		v1Group.GET("/info", metaHandler.GetInfo)
		v1Group.GET("/tasks", metaHandler.GetTasks)

		v1Group.GET("/datasets", datasetHandler.ListDatasets)
		v1Group.GET("/datasets/:dataset_id", datasetHandler.GetDataset)

		v1Group.POST("/systems", systemHandler.CreateSystem)
		v1Group.GET("/systems", systemHandler.ListSystems)
		v1Group.GET("/systems/:system_id", systemHandler.GetSystem)
		v1Group.GET("/systems/:system_id/status", systemHandler.GetStatus)
		v1Group.GET("/systems/:system_id/outputs", systemHandler.GetOutputs)
		v1Group.DELETE("/systems/:system_id", systemHandler.DeleteSystem)
		v1Group.POST("/systems/analyses", systemHandler.Analyses)

		v1Group.GET("/benchmarks", benchmarkHandler.ListBenchmarks)
		v1Group.GET("/benchmarks/:benchmark_id", benchmarkHandler.GetBenchmark)
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		panic(err)
	}
}

func loadConfig() Config {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Println("No .env file found. Falling back to OS environment variables.")
	}
	mustGetEnv := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return val
	}

	// REDIS
	redisHost := mustGetEnv("REDIS_HOST")
	redisPort := mustGetEnv("REDIS_PORT")
	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0"
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		log.Fatalf("Invalid REDIS_DB value: %v", err)
	}

	// PSQL
	psqlPortStr := mustGetEnv("PSQL_PORT")
	psqlPort, err := strconv.Atoi(psqlPortStr)
	if err != nil {
		log.Fatalf("Invalid PSQL_PORT value: %v", err)
	}

	// RABBITMQ
	rmqUser := mustGetEnv("RABBITMQ_USER")
	rmqPassword := mustGetEnv("RABBITMQ_PASSWORD")
	rmqHost := mustGetEnv("RABBITMQ_HOST")
	rmqPort := mustGetEnv("RABBITMQ_PORT")
	rabbitMQURL := "amqp://" + rmqUser + ":" + rmqPassword + "@" + rmqHost + ":" + rmqPort + "/"

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	rateLimitStr := os.Getenv("RATE_LIMIT")
	if rateLimitStr == "" {
		rateLimitStr = "10"
	}
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}

	return Config{
		ListenAddr: listenAddr,

		RedisAddr: redisHost + ":" + redisPort,
		RedisDB:   redisDB,

		PSQLHost:     mustGetEnv("PSQL_HOST"),
		PSQLPort:     psqlPort,
		PSQLUser:     mustGetEnv("PSQL_USER"),
		PSQLPassword: mustGetEnv("PSQL_PASSWORD"),
		PSQLDBName:   mustGetEnv("PSQL_DB"),
		PSQLSSLMode:  mustGetEnv("PSQL_SSLMODE"),

		S3Host:      mustGetEnv("S3_HOST") + ":" + mustGetEnv("S3_PORT"),
		S3Bucket:    mustGetEnv("S3_BUCKET"),
		S3AccessKey: mustGetEnv("S3_ACCESS_KEY"),
		S3SecretKey: mustGetEnv("S3_SECRET_KEY"),

		RabbitMQURL: rabbitMQURL,

		RateLimit: rateLimit,
	}
}
