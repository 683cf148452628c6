package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authUsecases "warden/internal/application/auth/usecases"
	profileUsecases "warden/internal/application/profile/usecases"
	sessionUsecases "warden/internal/application/session/usecases"
	"warden/internal/infrastructure/auth"
	"warden/internal/infrastructure/cache"
	"warden/internal/infrastructure/config"
	"warden/internal/infrastructure/email"
	"warden/internal/infrastructure/ratelimit"
	"warden/internal/infrastructure/repository"
	"warden/internal/infrastructure/storage"
	"warden/internal/infrastructure/token"
	"warden/internal/interfaces/http/handlers"
	"warden/internal/interfaces/http/middleware"
	"warden/internal/shared/logger"
)

// Router wires the HTTP surface together.
type Router struct {
	engine         *gin.Engine
	authHandler    *handlers.AuthHandler
	sessionHandler *handlers.SessionHandler
	profileHandler *handlers.ProfileHandler
	healthHandler  *handlers.HealthHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimitMiddleware
	avatarStore    *storage.AvatarStore
	allowedOrigins []string
	logger         logger.Interface
}

type jwtServiceAdapter struct {
	*auth.JWTService
}

func (a *jwtServiceAdapter) Generate(userID uint, sessionID string) (*authUsecases.TokenPair, error) {
	pair, err := a.JWTService.Generate(userID, sessionID)
	if err != nil {
		return nil, err
	}
	return &authUsecases.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (a *jwtServiceAdapter) Refresh(refreshToken string) (*authUsecases.TokenPair, error) {
	pair, err := a.JWTService.Refresh(refreshToken)
	if err != nil {
		return nil, err
	}
	return &authUsecases.TokenPair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// NewRouter creates the HTTP router with all dependencies.
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) (*Router, error) {
	engine := gin.New()
	handlers.RegisterValidations()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes, cfg.Auth.JWT.RefreshExpDays)
	jwtService := &jwtServiceAdapter{jwtSvc}
	tokenGen := token.NewTokenGenerator()
	sessionCache := cache.NewSessionCache(redisClient)

	avatarStore, err := storage.NewAvatarStore(storage.AvatarStoreConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return nil, err
	}

	// Accounts carry no email address, so login alerts go to an ops mailbox.
	// A nil sender disables them entirely.
	var alertSender authUsecases.LoginAlertSender
	if cfg.Email.Enabled {
		alertSender = email.NewSMTPEmailService(email.SMTPConfig{
			Host:         cfg.Email.SMTPHost,
			Port:         cfg.Email.SMTPPort,
			Username:     cfg.Email.SMTPUser,
			Password:     cfg.Email.SMTPPassword,
			FromAddress:  cfg.Email.FromAddress,
			FromName:     cfg.Email.FromName,
			AlertAddress: cfg.Email.AlertAddress,
		})
	}

	registerUC := authUsecases.NewRegisterWithPasswordUseCase(userRepo, hasher, log)
	loginUC := authUsecases.NewLoginWithPasswordUseCase(userRepo, sessionRepo, hasher, jwtService, tokenGen, alertSender, cfg.Auth.Session, log)
	logoutUC := authUsecases.NewLogoutUseCase(sessionRepo, sessionCache, log)
	refreshTokenUC := authUsecases.NewRefreshTokenUseCase(userRepo, sessionRepo, jwtService, tokenGen, sessionCache, cfg.Auth.Session, log)

	listSessionsUC := sessionUsecases.NewListSessionsUseCase(sessionRepo, log)
	revokeSessionUC := sessionUsecases.NewRevokeSessionUseCase(sessionRepo, sessionCache, log)

	getProfileUC := profileUsecases.NewGetProfileUseCase(userRepo, log)
	updateProfileUC := profileUsecases.NewUpdateProfileUseCase(userRepo, log)
	setAvatarUC := profileUsecases.NewSetAvatarUseCase(userRepo, avatarStore, log)
	clearAvatarUC := profileUsecases.NewClearAvatarUseCase(userRepo, avatarStore, log)

	authHandler := handlers.NewAuthHandler(registerUC, loginUC, logoutUC, refreshTokenUC, cfg.Auth.Cookie, cfg.Auth.JWT, log)
	sessionHandler := handlers.NewSessionHandler(listSessionsUC, revokeSessionUC, log)
	profileHandler := handlers.NewProfileHandler(getProfileUC, updateProfileUC, setAvatarUC, clearAvatarUC, log)
	healthHandler := handlers.NewHealthHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, sessionRepo, tokenGen, sessionCache, cfg.Auth.Session, log)

	limiter := ratelimit.NewRedisRateLimiter(redisClient)
	rateLimiter := middleware.NewRateLimitMiddleware(
		limiter,
		cfg.RateLimit.Limit,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		log,
	)

	return &Router{
		engine:         engine,
		authHandler:    authHandler,
		sessionHandler: sessionHandler,
		profileHandler: profileHandler,
		healthHandler:  healthHandler,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		avatarStore:    avatarStore,
		allowedOrigins: cfg.Server.AllowedOrigins,
		logger:         log,
	}, nil
}

// EnsureStorage creates the avatar bucket if it does not exist yet.
func (r *Router) EnsureStorage(ctx context.Context) error {
	return r.avatarStore.EnsureBucket(ctx)
}

// SetupRoutes configures all HTTP routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.CORS(r.allowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.healthHandler.Check)

	api := r.engine.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", r.rateLimiter.Limit("register"), r.authHandler.Register)
		auth.POST("/login", r.rateLimiter.Limit("login"), r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.RefreshToken)
		auth.POST("/logout", r.authMiddleware.RequireAuth(), r.authHandler.Logout)
	}

	sessions := api.Group("/sessions")
	sessions.Use(r.authMiddleware.RequireAuth())
	{
		sessions.GET("", r.sessionHandler.ListSessions)
		sessions.DELETE("/:id", r.sessionHandler.RevokeSession)
	}

	profile := api.Group("/profile")
	profile.Use(r.authMiddleware.RequireAuth())
	{
		profile.GET("", r.profileHandler.GetProfile)
		profile.PATCH("", r.profileHandler.UpdateProfile)
		profile.PUT("/avatar", r.profileHandler.SetAvatar)
		profile.DELETE("/avatar", r.profileHandler.ClearAvatar)
	}
}

// GetEngine returns the Gin engine.
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
