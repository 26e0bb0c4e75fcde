package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/petway-backend/internal/config"
	"github.com/ignatzorin/petway-backend/internal/http/handlers"
	"github.com/ignatzorin/petway-backend/internal/http/middleware"
)

// loginRateLimit - отдельный, более строгий лимит на подбор пароля и секретного ответа.
const loginRateLimit = 10

func SetupRouter(
	cfg *config.Config,
	sessions middleware.SessionAuthenticator,
	limiterStore limiter.Store,
	authHandler *handlers.AuthHandler,
	petHandler *handlers.PetHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = (cfg.MaxUploadSizeMB + 1) << 20
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	if cfg.ImageStorage == "local" {
		r.StaticFS(mediaRoute(cfg.MediaBaseURL), http.Dir(cfg.MediaStoragePath))
	}

	api := r.Group("/api")
	requireAuth := middleware.AuthMiddleware(sessions)
	optionalAuth := middleware.OptionalAuthMiddleware(sessions)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limiterStore, "auth", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		strict := middleware.RateLimitMiddleware(limiterStore, "auth-strict", loginRateLimit, 15*time.Minute)

		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", strict, authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/resend-code", authHandler.ResendCode)
		authGroup.POST("/secret-question", authHandler.SecretQuestion)
		authGroup.POST("/verify-secret-answer", strict, authHandler.VerifySecretAnswer)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.POST("/change-password", requireAuth, authHandler.ChangePassword)
	}

	api.GET("/users/me", requireAuth, authHandler.Me)

	pets := api.Group("/pets")
	{
		pets.GET("", petHandler.List)
		pets.GET("/:id", middleware.UUIDValidator("id"), optionalAuth, petHandler.Get)
		pets.POST("", requireAuth, petHandler.Create)
		pets.PUT("/:id", middleware.UUIDValidator("id"), requireAuth, petHandler.Update)
		pets.PATCH("/:id/status", middleware.UUIDValidator("id"), requireAuth, petHandler.UpdateStatus)
		pets.DELETE("/:id", middleware.UUIDValidator("id"), requireAuth, petHandler.Delete)
	}

	api.GET("/ws", optionalAuth, wsHandler.Handle)

	return r
}

// mediaRoute возвращает путь раздачи локальных фото. Абсолютный MEDIA_BASE_URL (CDN) раздаётся по /media.
func mediaRoute(baseURL string) string {
	if strings.HasPrefix(baseURL, "/") && len(baseURL) > 1 {
		return baseURL
	}
	return "/media"
}
