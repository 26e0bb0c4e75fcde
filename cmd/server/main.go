package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/petway-backend/internal/config"
	"github.com/ignatzorin/petway-backend/internal/db"
	"github.com/ignatzorin/petway-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/petway-backend/internal/http/handlers"
	"github.com/ignatzorin/petway-backend/internal/http/middleware"
	httpRouter "github.com/ignatzorin/petway-backend/internal/http/router"
	"github.com/ignatzorin/petway-backend/internal/logger"
	"github.com/ignatzorin/petway-backend/internal/mailer"
	"github.com/ignatzorin/petway-backend/internal/repository"
	"github.com/ignatzorin/petway-backend/internal/service"
	"github.com/ignatzorin/petway-backend/internal/storage"
	"github.com/ignatzorin/petway-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	limiterStore, err := middleware.NewLimiterStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("main: %v", err)
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить хранилище фото: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	codeRepo := repository.NewVerificationRepository(dbConn)
	petRepo := repository.NewPetRepository(dbConn)

	// Лента объявлений.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL, cfg.ResetTokenTTL)
	hasher := service.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	verifier := service.NewVerificationService(codeRepo, cfg.VerificationCodeTTL, cfg.ResendCooldown)
	gateway := mailer.NewGateway(newMailSender(cfg))
	authService := service.NewAuthService(userRepo, verifier, gateway, hasher, tokenManager)
	petService := service.NewPetService(petRepo, images, hub)

	// Удаляем просроченные коды подтверждения.
	goroutine.Every(ctx, cfg.CodeSweepInterval, verifier.Sweep)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService, cfg.SecureCookies())
	petHandler := httpHandlers.NewPetHandler(petService, cfg.MaxUploadSizeMB)
	wsHandler := httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, hub)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authService, limiterStore, authHandler, petHandler, wsHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.Infof("main: HTTP сервер запущен на порту %s (фото: %s)", cfg.HTTPPort, cfg.ImageStorage)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// newImageStore выбирает хранилище фото по IMAGE_STORAGE.
func newImageStore(ctx context.Context, cfg *config.Config) (service.ImageStore, error) {
	if cfg.ImageStorage == "s3" {
		return storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		}, cfg.MaxUploadSizeMB)
	}
	return storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MediaBaseURL, cfg.MaxUploadSizeMB)
}

// newMailSender возвращает SMTP транспорт или, без SMTP_HOST, запись писем в лог.
func newMailSender(cfg *config.Config) mailer.Sender {
	if cfg.SMTP.Host == "" {
		logger.Log.Warn("main: SMTP_HOST не задан, письма пишутся в лог")
		return mailer.LogSender{}
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
