package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damoang/angple-elements/internal/config"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/element"
	"github.com/damoang/angple-elements/internal/forms"
	"github.com/damoang/angple-elements/internal/handler"
	"github.com/damoang/angple-elements/internal/middleware"
	"github.com/damoang/angple-elements/internal/migration"
	"github.com/damoang/angple-elements/internal/permission"
	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/repository"
	"github.com/damoang/angple-elements/internal/routes"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/internal/sitetree"
	pkgcache "github.com/damoang/angple-elements/pkg/cache"
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/damoang/angple-elements/pkg/jwt"
	pkglogger "github.com/damoang/angple-elements/pkg/logger"
	pkgstorage "github.com/damoang/angple-elements/pkg/storage"

	// 내장 확장 (init에서 팩토리 등록)
	_ "github.com/damoang/angple-elements/plugins/auditlog"
	_ "github.com/damoang/angple-elements/plugins/readonly"

	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Angple Elements API
// @version         1.0
// @description     Content block (element object) API with draft/live versioning
//
// @license.name    MIT
//
// @host            localhost:8083
// @BasePath        /api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath(env string) string {
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	// 로거 초기화
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath(env)
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pkglogger.GetLogger().Info().Fields(config.LogResolved(cfg)).Msg("Config resolved")

	if cfg.Server.Env != "local" && cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis 연결 (선택)
	redisClient, err := pkgcache.NewRedisClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else if redisClient != nil {
		pkglogger.Info("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// 파일 저장소
	files, err := initStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// i18n
	i18n.SetDefaultLocale(i18n.Locale(cfg.I18n.DefaultLocale))
	bundle := i18n.NewBundle(i18n.DefaultLocale())
	for locale, messages := range i18n.DefaultMessages() {
		bundle.LoadMessages(locale, messages)
	}
	if cfg.I18n.Dir != "" {
		if err := bundle.LoadDir(cfg.I18n.Dir); err != nil {
			log.Fatalf("Failed to load translations: %v", err)
		}
	}

	// Repositories
	memberRepo := repository.NewMemberRepository(db)
	pageRepo := repository.NewPageRepository(db)
	linkRepo := repository.NewLinkRepository(db)

	// Permissions
	checker := permission.NewChecker(memberRepo, cacheService, *pkglogger.GetLogger())
	policy := sitetree.NewPolicy(checker, pageRepo)

	// Hooks & extensions
	hooks := plugin.NewHookManager(pkglogger.NewComponent("hooks"))
	pluginManager := plugin.NewManager(hooks, pkglogger.NewComponent("plugins"))
	if err := pluginManager.EnableAll(cfg.Extensions); err != nil {
		log.Fatalf("Failed to enable extensions: %v", err)
	}
	pkglogger.Info("Available extensions: %v", plugin.GetRegisteredNames())

	// Schema & forms
	schemas := schema.NewRegistry()
	schemas.MustRegister(element.Schema())
	builder := forms.NewBuilder(schemas, hooks, bundle, pkglogger.NewComponent("forms"))
	element.RegisterFields(builder, cfg.Elements.UploadFolder)

	// Element service
	elementService := element.NewService(
		element.NewElementStore(db),
		element.NewImageStore(db),
		linkRepo,
		builder,
		hooks,
		pkglogger.GetLogger().With().Str("component", "element").Logger(),
	).WithFiles(files).WithBlockedLinkDomains(cfg.Elements.BlockedLinkDomains)
	elementPerms := element.NewPermissions(hooks, checker, func(p *domain.Page) element.PageAccess {
		return policy.For(p)
	})
	elementHandler := handler.NewElementHandler(elementService, elementPerms, pageRepo, cfg.Elements)

	// Router
	router := gin.New()
	deps := routes.Deps{
		JWT:          jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry),
		Members:      memberRepo,
		Pages:        pageRepo,
		Redis:        redisClient,
		AllowOrigins: cfg.Server.AllowOrigins,
	}
	if cfg.Storage.Driver == "local" {
		deps.AssetsDir = cfg.Elements.AssetsDir
	}
	routes.Setup(router, elementHandler, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reportDBStats(ctx, db)

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	pkglogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Warn("Server forced to shutdown: %v", err)
	}
	pluginManager.Shutdown()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+09:00'"

	logLevel := gormlogger.Warn
	if cfg.Server.Env == "local" {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initStorage(cfg *config.Config) (pkgstorage.Storage, error) {
	if cfg.Storage.Driver == "s3" {
		return pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
	}
	return pkgstorage.NewLocalStorage(cfg.Elements.AssetsDir, "/assets"), nil
}

// reportDBStats publishes the open connection count until ctx ends
func reportDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			middleware.SetDBConnectionsOpen(sqlDB.Stats().OpenConnections)
		}
	}
}
