// Package main 是应用程序的入口点。
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
	"github.com/spf13/viper"

	"interview-coach-go/internal/config"
	"interview-coach-go/internal/handler"
	"interview-coach-go/internal/interview"
	"interview-coach-go/internal/middleware"
	"interview-coach-go/internal/pipeline"
	"interview-coach-go/internal/repository"
	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/database"
	"interview-coach-go/pkg/es"
	"interview-coach-go/pkg/kafka"
	"interview-coach-go/pkg/llm"
	"interview-coach-go/pkg/log"
	"interview-coach-go/pkg/storage"
	"interview-coach-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MinIO 和 Elasticsearch
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	subjectRepo := repository.NewSubjectRepository(database.DB)
	interviewRepo := repository.NewInterviewRepository(database.DB)
	resultCache := repository.NewResultCache(database.RDB)
	tokenBlacklist := repository.NewTokenBlacklist(database.RDB)

	// 5. 初始化外部客户端和 Service (依赖注入)
	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatal("LLM 客户端初始化失败", err)
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()
	transcriptStore := storage.NewTranscriptStore(storage.MinioClient, cfg.MinIO.BucketName)
	answerIndex := es.NewAnswerIndex(es.ESClient, cfg.Elasticsearch.IndexName)

	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	registry := interview.NewRegistry()
	prompts := interview.NewPromptBuilder(cfg.Interview.MaxQuestions, cfg.Interview.AnswerTruncate)

	userService := service.NewUserService(userRepo, tokenBlacklist, jwtManager)
	subjectService := service.NewSubjectService(subjectRepo)
	evaluationService := service.NewEvaluationService(
		interviewRepo, llmClient, prompts, resultCache, producer,
		cfg.Interview.LLMTimeout(), cfg.Interview.ResultCacheTTL(),
	)
	interviewService := service.NewInterviewService(
		interviewRepo, subjectRepo, userRepo, llmClient, prompts, evaluationService, registry,
		service.InterviewOptions{MaxQuestions: cfg.Interview.MaxQuestions, LLMTimeout: cfg.Interview.LLMTimeout()},
	)
	resultService := service.NewResultService(interviewRepo, resultCache, transcriptStore, cfg.Interview.ResultCacheTTL())
	searchService := service.NewSearchService(answerIndex)

	// 6. 初始化归档管道 (Processor)
	processor := pipeline.NewProcessor(interviewRepo, transcriptStore, answerIndex)

	// 7. 启动后台 Kafka 消费者
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	go kafka.StartConsumer(consumerCtx, cfg.Kafka, processor, kafka.NewRedisAttemptCounter(database.RDB))

	// 7.1 首次启动时导入主题目录，已有目录则跳过
	seedSubjects("./configs/subjects.yaml", subjectService)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	health := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := database.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error { return database.RDB.Ping(ctx).Err() },
	})
	r.GET("/healthz", health.Health)

	authMiddleware := middleware.AuthMiddleware(jwtManager, userService)
	userHandler := handler.NewUserHandler(userService)
	sessionHandler := handler.NewSessionHandler(resultService)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/auth/refreshToken", handler.NewAuthHandler(userService).RefreshToken)

		users := apiV1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(authMiddleware)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.PUT("/me", userHandler.UpdateProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		apiV1.GET("/subjects", authMiddleware, handler.NewSubjectHandler(subjectService).ListCatalogs)

		sessions := apiV1.Group("/sessions")
		sessions.Use(authMiddleware)
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id/transcript", sessionHandler.GetTranscript)
			sessions.GET("/:id/result", sessionHandler.GetResult)
			sessions.GET("/:id/download", sessionHandler.DownloadTranscript)
		}

		apiV1.GET("/search/answers", authMiddleware, handler.NewSearchHandler(searchService).SearchAnswers)

		admin := apiV1.Group("/admin")
		admin.Use(authMiddleware, middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(subjectService)
			admin.POST("/catalogs", adminHandler.CreateCatalog)
			admin.POST("/catalogs/:id/subtopics", adminHandler.CreateSubtopic)
		}
	}

	// 面试 WebSocket，token 放在路径中
	r.GET("/interview/:token", handler.NewInterviewHandler(interviewService, userService, jwtManager, registry).Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown 不会关闭已升级的 WebSocket 连接，仍在进行的面试由各自的断开流程收尾
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}
	stopConsumer()
	log.Infof("服务已优雅关闭, 剩余连接: %d", registry.Len())
}

// seedCatalog 是 subjects.yaml 中的一个目录。
type seedCatalog struct {
	Title     string `mapstructure:"title"`
	Objective string `mapstructure:"objective"`
	Subtopics []struct {
		Name        string `mapstructure:"name"`
		Description string `mapstructure:"description"`
	} `mapstructure:"subtopics"`
}

// seedSubjects 在目录表为空时从 YAML 文件导入主题（幂等）。
func seedSubjects(path string, subjects service.SubjectService) {
	if _, err := os.Stat(path); err != nil {
		log.Infof("seedSubjects: 文件 '%s' 不存在，跳过初始化导入", path)
		return
	}
	existing, err := subjects.ListCatalogs()
	if err != nil {
		log.Warnf("seedSubjects: 查询目录失败: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		log.Warnf("seedSubjects: 读取 '%s' 失败: %v", path, err)
		return
	}
	var catalogs []seedCatalog
	if err := v.UnmarshalKey("catalogs", &catalogs); err != nil {
		log.Warnf("seedSubjects: 解析失败: %v", err)
		return
	}

	for _, sc := range catalogs {
		catalog, err := subjects.CreateCatalog(sc.Title, sc.Objective)
		if err != nil {
			log.Warnf("seedSubjects: 创建目录 '%s' 失败: %v", sc.Title, err)
			continue
		}
		for _, st := range sc.Subtopics {
			if _, err := subjects.CreateSubtopic(catalog.ID, st.Name, st.Description); err != nil {
				log.Warnf("seedSubjects: 创建子主题 '%s' 失败: %v", st.Name, err)
			}
		}
	}
	log.Infof("seedSubjects: 已导入 %d 个目录", len(catalogs))
}
