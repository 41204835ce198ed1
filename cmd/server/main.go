package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/api/handlers"
	"github.com/publora/publora/internal/api/middleware"
	job "github.com/publora/publora/internal/jobs"
	"github.com/publora/publora/internal/platform"
	"github.com/publora/publora/internal/queue"
	"github.com/publora/publora/internal/repository"
	"github.com/publora/publora/internal/service"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	socialPageRepo := repository.NewSocialPageRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	selectedPageRepo := repository.NewSelectedPageRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	postingHistoryRepo := repository.NewPostingHistoryRepository(db)

	factory := platform.NewFactory(platform.FactoryConfig{
		Facebook:          creds(cfg.Facebook),
		Instagram:         creds(cfg.Instagram),
		InstagramBusiness: creds(cfg.InstagramBusiness),
		LinkedIn:          creds(cfg.LinkedIn),
		Pinterest:         creds(cfg.Pinterest),
		TikTok:            creds(cfg.Tiktok),
		YouTube:           creds(cfg.Youtube),
		GoogleBusiness:    creds(cfg.GoogleBusiness),
	}, platform.WithPostIDSink(postingHistoryRepo))

	tokenStore := &service.EncryptedAccountStore{Repo: socialAccountRepo, SecretKey: cfg.SecretKey}
	tokenManager := platform.NewTokenManager(tokenStore, nil)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(cfg)
	accountService := service.NewAccountService(cfg, factory, tokenManager, socialAccountRepo, socialPageRepo)
	postService := service.NewPostService(db, postRepo, selectedPageRepo, socialPageRepo, socialAccountRepo, mediaAssetRepo, postMediaRepo, postingHistoryRepo, r2Service)
	publishService := service.NewPublishService(cfg, factory, accountService, postRepo, selectedPageRepo, socialPageRepo, mediaAssetRepo, postMediaRepo, postingHistoryRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	pf := handlers.NewPlatformHandler(accountService, cfg)
	app.Get("/auth/:platform/callback", pf.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/:platform", pf.AddSocialAccount)

	user := handlers.NewUserHandler(userService, cfg)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/results", post.PostResults)
	api.Get("/history", post.History)
	api.Post("/posts/remove", post.RemovePost)

	// social accounts api routes
	api.Get("/accounts", pf.ListSocialAccounts)
	api.Post("/accounts/remove", pf.DeleteSocialAccount)
	api.Get("/pages", pf.ListPages)
	api.Post("/pages/sync", pf.SyncPages)
	api.Get("/pages/status", pf.PageStatus)
	api.Get("/pages/history", pf.PagePostHistory)
	api.Get("/pages/analytics", pf.PagePostAnalytics)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, accountService)
	catchupJob := job.NewPublishCatchupJob(postRepo, client)

	//queue
	queueW := queue.NewQueue(publishService)

	c := cron.New()
	c.AddFunc("@every 1h", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 5m", catchupJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func creds(app config.OAuthApp) platform.Credentials {
	return platform.Credentials{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURI:  app.RedirectURI,
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
