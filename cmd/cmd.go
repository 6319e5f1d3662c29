package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-portal-backend/internal/config"
	"campus-portal-backend/internal/handlers"
	"campus-portal-backend/internal/middleware"
	"campus-portal-backend/internal/repository"
	"campus-portal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Connect to redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse redis URL")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	log.Info().Msg("Redis connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Initialize services
	wsHub := services.NewWSHub()
	userService := services.NewUserService(userRepo, rosterRepo, services.LogMailer{}, cfg.JWT.Secret)
	chatService := services.NewChatService(convRepo, msgRepo, wsHub)
	feedService := services.NewFeedService(postRepo, commentRepo, friendRepo, userRepo, notifRepo, wsHub)
	friendshipService := services.NewFriendshipService(friendRepo, userRepo, notifRepo, wsHub)
	presenceService := services.NewPresenceService(rdb, userRepo)
	profileService := services.NewProfileService(userRepo, friendRepo, presenceService)
	notificationService := services.NewNotificationService(notifRepo)
	quotaService := services.NewQuotaService(rdb, cfg.Limits.DailyUploadBytes)
	mediaService, err := services.NewMediaService(
		quotaService,
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}
	repairService := services.NewRepairService(convRepo, postRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	chatHandler := handlers.NewChatHandler(chatService)
	feedHandler := handlers.NewFeedHandler(feedService)
	profileHandler := handlers.NewProfileHandler(profileService, friendshipService, notificationService)
	mediaHandler := handlers.NewMediaHandler(mediaService, quotaService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, presenceService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Post("/auth/reset-password", authHandler.ResetPassword)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/conversations", chatHandler.ListConversations)
			r.Get("/conversations/{conversation_id}", chatHandler.GetConversation)
			r.Get("/conversations/{conversation_id}/messages", chatHandler.GetThread)
			r.Delete("/conversations/{conversation_id}", chatHandler.DeleteConversation)
			r.Put("/conversations/{conversation_id}/pin", chatHandler.PinConversation)
			r.Put("/conversations/{conversation_id}/block", chatHandler.BlockConversation)
			r.Put("/conversations/{conversation_id}/bookmarks/{message_id}", chatHandler.BookmarkMessage)
			r.Put("/conversations/{conversation_id}/pinned-message", chatHandler.PinMessage)
			r.Put("/conversations/{conversation_id}/theme", chatHandler.SetTheme)

			r.Post("/messages", chatHandler.SendMessage)
			r.Post("/messages/{message_id}/forward", chatHandler.ForwardMessage)
			r.Post("/messages/{message_id}/reactions", chatHandler.ReactToMessage)
			r.Patch("/messages/{message_id}", chatHandler.EditMessage)
			r.Delete("/messages/{message_id}", chatHandler.DeleteMessage)

			r.Post("/posts", feedHandler.CreatePost)
			r.Get("/posts", feedHandler.ListFeed)
			r.Post("/posts/render", feedHandler.RenderPost)
			r.Post("/posts/{post_id}/reactions", feedHandler.ReactToPost)
			r.Delete("/posts/{post_id}", feedHandler.DeletePost)
			r.Post("/posts/{post_id}/comments", feedHandler.AddComment)
			r.Get("/posts/{post_id}/comments", feedHandler.ListComments)
			r.Patch("/comments/{comment_id}", feedHandler.EditComment)
			r.Post("/comments/{comment_id}/reactions", feedHandler.ReactToComment)
			r.Delete("/comments/{comment_id}", feedHandler.DeleteComment)

			r.Get("/users/{user_id}", profileHandler.GetProfile)
			r.Get("/users/{user_id}/posts", feedHandler.ListUserFeed)
			r.Put("/profile", profileHandler.UpdateProfile)

			r.Post("/friends/requests", profileHandler.RequestFriendship)
			r.Get("/friends/requests", profileHandler.ListPendingFriendships)
			r.Post("/friends/requests/{request_id}/accept", profileHandler.AcceptFriendship)

			r.Get("/notifications", profileHandler.ListNotifications)
			r.Post("/notifications/{notification_id}/read", profileHandler.MarkNotificationRead)
			r.Post("/notifications/read-all", profileHandler.MarkAllNotificationsRead)

			r.Post("/media/upload", mediaHandler.PresignUpload)
			r.Get("/media/quota", mediaHandler.Quota)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Background repair pass for denormalized counters and summaries
	repairCtx, stopRepair := context.WithCancel(context.Background())
	defer stopRepair()
	go repairService.RunPeriodic(repairCtx, cfg.Limits.RepairInterval)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stopRepair()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
