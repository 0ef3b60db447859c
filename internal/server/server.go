// Package server contains the HTML and JSON handlers of the Yatube web application.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "yatube/docs" // swagger docs
	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	pageCache      cache.PageCache

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	imageService   *service.ImageService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	groupService   *service.GroupService
	authService    *service.AuthService
}

// NewServer connects to the database and Redis and returns a ready server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: the page cache then lives in process memory and
// logout no longer revokes tokens early.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("yatube"),
		pageCache:      cache.NewPageCache(redisClient, cache.IndexPagePrefix),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.imageService = service.NewImageService(cfg)
	s.postService = service.NewPostService(
		s.postRepo, s.groupRepo, s.userRepo, s.followRepo, s.commentRepo,
		s.imageService, cfg.PageSize,
	)
	s.commentService = service.NewCommentService(s.postRepo, s.commentRepo)
	s.followService = service.NewFollowService(s.userRepo, s.followRepo, s.postRepo, cfg.PageSize)
	s.groupService = service.NewGroupService(s.groupRepo)
	s.authService = service.NewAuthService(s.userRepo, redisClient, cfg.JWTSecret)

	return s, nil
}

// NewApp builds the fiber application with views, middleware and routes.
func (s *Server) NewApp() (*fiber.App, error) {
	engine, err := newViewEngine()
	if err != nil {
		return nil, err
	}

	maxUpload := s.config.ImageMaxUploadSizeMB
	if maxUpload <= 0 {
		maxUpload = service.DefaultImageMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		Views:        engine,
		ErrorHandler: s.errorHandler,
		// room for the multipart envelope around the largest accepted image
		BodyLimit: (maxUpload + 1) * 1024 * 1024,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// the layout pulls its stylesheet from a CDN
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8000,http://127.0.0.1:8000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	app.Use(s.SessionUser())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))

	app.Static("/media", s.imageService.MediaDir(), fiber.Static{MaxAge: 3600})

	login := middleware.RequireAuthenticated()

	// Listings
	app.Get("/", cache.CachePage(s.pageCache, s.config.IndexCacheTTL(), indexCacheKey), s.Index)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/profile/:username", s.Profile)
	app.Get("/profile/:username/follow", login, s.ProfileFollow)
	app.Get("/profile/:username/unfollow", login, s.ProfileUnfollow)
	app.Get("/follow", login, s.FollowIndex)

	// Posts
	app.Get("/create", login, s.CreatePostForm)
	app.Post("/create", login, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	app.Get("/posts/:id", s.PostDetail)
	app.Get("/posts/:id/edit", login, s.RequireOwnership(), s.EditPostForm)
	app.Post("/posts/:id/edit", login, s.RequireOwnership(), s.EditPost)
	app.Post("/posts/:id/delete", login, s.RequireOwnership(), s.DeletePost)
	app.Get("/posts/:id/comment", s.CommentRedirect)
	app.Post("/posts/:id/comment", login, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.AddComment)

	// Accounts
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupForm)
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Get("/login", s.LoginForm)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/logout", s.Logout)
	auth.Post("/logout", s.Logout)

	// Static pages
	app.Get("/about/author", s.AboutAuthor)
	app.Get("/about/tech", s.AboutTech)

	// Site administration
	app.Post("/admin/cache/clear", s.APIAuthRequired(), s.AdminRequired(), s.ClearPageCache)

	s.setupAPIRoutes(app)
}

func (s *Server) setupAPIRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/auth/token", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.APIToken)

	api.Get("/posts", s.APIListPosts)
	api.Get("/posts/:id", s.APIGetPost)
	api.Get("/posts/:id/comments", s.APIListComments)
	api.Get("/groups", s.APIListGroups)
	api.Get("/groups/:slug", s.APIGetGroup)
	api.Get("/groups/:slug/posts", s.APIGroupPosts)

	protected := api.Group("", s.APIAuthRequired())
	protected.Post("/posts/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.APIAddComment)
	protected.Get("/follow", s.APIFeed)
	protected.Post("/follow/:username", s.APIFollow)
	protected.Delete("/follow/:username", s.APIUnfollow)

	protected.Post("/groups", s.AdminRequired(), s.APICreateGroup)
	protected.Delete("/groups/:slug", s.AdminRequired(), s.APIDeleteGroup)
	protected.Post("/admin/cache/clear", s.AdminRequired(), s.ClearPageCache)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional, so its
// absence is reported but does not fail the check.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app, err := s.NewApp()
	if err != nil {
		return err
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
