package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"slices"
	"time"
	"wordrush/auth"
	"wordrush/cache"
	"wordrush/config"
	"wordrush/content"
	"wordrush/crypto"
	"wordrush/game"
	"wordrush/logger"
	"wordrush/migrations"
	"wordrush/storage"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	settleTimeout   = 5 * time.Second
	shutdownTimeout = 30 * time.Second
	leaderboardTTL  = 30 * time.Second
)

// requestLogger logs one line per request once the handler chain returns.
func requestLogger() gin.HandlerFunc {
	l := logger.Component("http")
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		ev := l.Info()
		if status >= http.StatusInternalServerError {
			ev = l.Error()
		} else if status >= http.StatusBadRequest {
			ev = l.Warn()
		}
		ev.Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", ctx.ClientIP()).
			Msg("request")
	}
}

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(requestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("invalid log level")
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Dependencies
	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	var store game.AccountStore = pgRepo
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		redisClient = redis.NewClient(opts)
		store = cache.NewLeaderboards(pgRepo, redisClient, "wordrush:", leaderboardTTL)
		log.Info().Msg("leaderboard cache enabled")
	}

	library, err := content.Load(cfg.ContentDir, cfg.DefaultPack)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word packs")
	}

	tokenAge := time.Duration(config.JWTCookie.MaxAge) * time.Second
	passwordHasher := crypto.NewArgon2idHasher(config.Argon2id)
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, tokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge)

	r := CreateServer(cfg.AllowedOrigins)

	{
		auth := r.Group("/auth")
		auth.POST("/signup", authHandler.SignupHandler)
		auth.POST("/login", authHandler.LoginHandler)
		auth.POST("/logout", authHandler.LogoutHandler)
		auth.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	sched := game.NewTimeScheduler()
	settler := game.NewSettler(store, settleTimeout)
	registry, err := game.NewRegistry(cfg.Game, library, sched, settler)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create session registry")
	}
	gameService := game.NewService(registry, store, library)
	gameHandler := game.NewGameHandler(gameService, pgRepo, sched)
	{
		requireAuth := authHandler.RequireAuthMiddleware(time.Second * 2)
		gameGroup := r.Group("/game")
		gameGroup.GET("/packs", gameHandler.PacksHandler)
		gameGroup.GET("/leaderboard/:category", gameHandler.LeaderboardHandler)
		gameGroup.GET("/ws", requireAuth, gameHandler.WebsocketHandler)
		gameGroup.GET("/me", requireAuth, gameHandler.MeHandler)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("server started")

	wait := gfshutdown.GracefulShutdown(context.Background(), shutdownTimeout, map[string]gfshutdown.Operation{
		"server": func(ctx context.Context) error {
			log.Info().Msg("shutdown signal received, waiting for pending settlements")
			err := srv.Shutdown(ctx)

			done := make(chan struct{})
			go func() {
				settler.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				log.Warn().Msg("gave up on pending settlements")
			}

			if redisClient != nil {
				redisClient.Close()
			}
			pgRepo.Close()
			return err
		},
	})

	exitCode := <-wait
	log.Info().Int("code", exitCode).Msg("shutting down now")
	os.Exit(exitCode)
}
