package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sitebuilder-backend/internal/background"
	"sitebuilder-backend/internal/blocks"
	"sitebuilder-backend/internal/config"
	"sitebuilder-backend/internal/content"
	"sitebuilder-backend/internal/handlers"
	"sitebuilder-backend/internal/middleware"
	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/internal/preview"
	"sitebuilder-backend/internal/render"
	"sitebuilder-backend/internal/repository"
	"sitebuilder-backend/internal/seed"
	"sitebuilder-backend/internal/service"
	"sitebuilder-backend/internal/theme"
	"sitebuilder-backend/pkg/cache"
	"sitebuilder-backend/pkg/logger"
	"sitebuilder-backend/pkg/validator"
)

const previewSweepJob = "preview-session-sweep"

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.PageCache

	registry  *blocks.Registry
	overrides *blocks.TemplateRegistry
	templates *theme.Manager
	watcher   *theme.Watcher
	renderer  *render.Renderer

	store content.Store
	hub   *preview.Hub

	services  serviceContainer
	handlers  handlerContainer
	scheduler *background.Scheduler
	limits    *middleware.RateLimitManager

	ctx    context.Context
	cancel context.CancelFunc

	router *gin.Engine
	server *http.Server
}

type serviceContainer struct {
	Auth      *service.AuthService
	Editor    *service.EditorService
	Site      *service.SiteService
	Templates *service.TemplateService
	Upload    *service.UploadService
}

type handlerContainer struct {
	Auth      *handlers.AuthHandler
	Editor    *handlers.EditorHandler
	Preview   *handlers.PreviewHandler
	Site      *handlers.SiteHandler
	Content   *handlers.ContentHandler
	Templates *handlers.TemplateHandler
	Upload    *handlers.UploadHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	steps := []func() error{
		app.initCache,
		app.initTemplates,
		app.initStore,
		app.initServices,
		app.seedContent,
		app.initPreview,
		app.initBackground,
		app.initHandlers,
		app.initRouter,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			app.release()
			return nil, err
		}
	}

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
		"content":     a.cfg.ContentBackend,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Failed to stop background scheduler", nil)
		}
	}

	if a.hub != nil {
		a.hub.CloseAll()
	}

	a.release()
	return nil
}

func (a *Application) release() {
	if a.cancel != nil {
		a.cancel()
	}

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			logger.Error(err, "Failed to stop template watcher", nil)
		}
	}

	if a.limits != nil {
		_ = a.limits.Shutdown()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initCache() error {
	switch {
	case !a.cfg.EnableCache:
		a.cache = cache.Disabled()
	case !a.cfg.EnableRedis:
		a.cache = cache.NewMemory(0)
	default:
		c, err := cache.NewRedis(a.cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, caching pages in memory", map[string]interface{}{"error": err.Error()})
			c = cache.NewMemory(0)
		}
		a.cache = c
	}
	return nil
}

func (a *Application) initTemplates() error {
	a.registry = blocks.DefaultRegistry()
	a.overrides = blocks.NewTemplateRegistry(a.registry)

	manager, err := theme.NewManager(a.cfg.TemplatesDir, a.overrides)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if a.cfg.DefaultTemplate != "" {
		if err := manager.Activate(a.cfg.DefaultTemplate); err != nil {
			logger.Warn("Default template not found", map[string]interface{}{"template": a.cfg.DefaultTemplate})
		}
	}

	a.templates = manager
	a.renderer = render.NewRenderer(a.overrides)

	logger.Info("Templates loaded", map[string]interface{}{"count": len(manager.List())})
	return nil
}

func (a *Application) initStore() error {
	switch a.cfg.ContentBackend {
	case config.ContentBackendHTTP:
		store, err := content.NewHTTPStore(content.HTTPConfig{
			BaseURL:  a.cfg.ContentAPIURL,
			Token:    a.cfg.ContentAPIToken,
			Timeout:  a.cfg.ContentAPITimeout,
			Attempts: uint(max(a.cfg.ContentAPIAttempts, 1)),
		})
		if err != nil {
			return err
		}
		a.store = store
		return nil
	default:
		if err := a.initDatabase(); err != nil {
			return err
		}
		a.store = content.NewDatabaseStore(repository.NewDocumentRepository(a.db), a.cfg.SiteKey)
		return nil
	}
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db

	logger.Info("Running database migrations", nil)
	if err := db.AutoMigrate(&models.SiteDocumentRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (a *Application) initServices() error {
	accounts, err := service.ParseAccounts(a.cfg.EditorAccounts)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		logger.Warn("No editor accounts configured, editor login is disabled", nil)
	}

	a.services = serviceContainer{
		Auth:   service.NewAuthService(accounts, a.cfg.JWTSecret),
		Editor: service.NewEditorService(a.registry, a.templates),
		Site:   service.NewSiteService(a.store, a.renderer, a.templates, a.cache),
		Upload: service.NewUploadService(a.cfg.UploadDir, a.cfg.MaxUploadSize, a.store),
	}

	// Every write, from the editor or the content API, drops cached pages.
	a.store = content.WithSaveHooks(a.store, a.services.Site.InvalidateCache)

	validator.Init(a.services.Editor.BlockTypeExists)
	return nil
}

func (a *Application) seedContent() error {
	if !a.cfg.SeedContent {
		return nil
	}
	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()

	if _, err := seed.EnsureDefaultDocument(ctx, a.store); err != nil {
		logger.Error(err, "Failed to seed starter site", nil)
	}
	return nil
}

func (a *Application) initPreview() error {
	a.hub = preview.NewHub(a.store, a.registry, a.renderer, a.cfg.PreviewIdleTTL)
	a.services.Templates = service.NewTemplateService(a.templates, a.cfg.DefaultTemplate, a.templatesChanged)

	if !a.cfg.WatchTemplates {
		return nil
	}

	watcher, err := theme.NewWatcher(a.templates, func(string) {
		a.templatesChanged()
	})
	if err != nil {
		return fmt.Errorf("failed to watch templates: %w", err)
	}
	watcher.Start()
	a.watcher = watcher
	return nil
}

// templatesChanged re-renders open previews and drops cached pages after a
// template switch or reload.
func (a *Application) templatesChanged() {
	a.hub.RefreshAll()
	a.services.Site.InvalidateCache(a.ctx, models.SiteDocument{})
}

func (a *Application) initBackground() error {
	a.scheduler = background.NewScheduler(background.SchedulerConfig{WorkerCount: 2})
	a.scheduler.Start(a.ctx)

	return a.scheduler.ScheduleEvery(a.cfg.PreviewSweepPeriod, background.Job{
		Name:    previewSweepJob,
		Run:     a.hub.Sweep,
		Timeout: 30 * time.Second,
	})
}

func (a *Application) initHandlers() error {
	a.handlers = handlerContainer{
		Auth:      handlers.NewAuthHandler(a.services.Auth),
		Editor:    handlers.NewEditorHandler(a.hub, a.services.Editor),
		Preview:   handlers.NewPreviewHandler(a.hub, a.templates, a.cfg.CORSOrigins),
		Site:      handlers.NewSiteHandler(a.services.Site),
		Content:   handlers.NewContentHandler(a.store),
		Templates: handlers.NewTemplateHandler(a.services.Templates),
		Upload:    handlers.NewUploadHandler(a.services.Upload),
	}
	return nil
}

func (a *Application) initRouter() error {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a.limits = middleware.NewRateLimitManager(a.ctx)
	apiLimit := middleware.RateLimit{
		Requests: a.cfg.RateLimitRequests,
		Window:   a.cfg.RateLimitWindow,
		Burst:    a.cfg.RateLimitBurst,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	if a.cfg.EnableMetrics {
		router.Use(middleware.MetricsMiddleware())
	}
	router.Use(middleware.SecurityHeadersMiddleware(a.cfg.CORSOrigins))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-CSRF-Token", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"sessions": a.hub.Len(),
			"jobs":     a.scheduler.Stats(),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.StaticFS("/static", theme.NewFileSystem(a.templates, a.cfg.DefaultTemplate))
	router.StaticFS("/preview/assets", handlers.PreviewAssets())
	router.StaticFS("/assets", render.Assets())
	uploads := router.Group("/uploads", middleware.UploadsProtection())
	uploads.StaticFS("", http.Dir(a.cfg.UploadDir))

	auth := router.Group("/api/auth")
	auth.Use(middleware.CSRFMiddleware("/api/auth/login", "/api/auth/logout"))
	{
		auth.POST("/login", middleware.RateLimitMiddleware(a.limits, "login", middleware.RateLimit{Requests: 10, Window: time.Minute, Burst: 5}), a.handlers.Auth.Login)
		auth.POST("/logout", a.handlers.Auth.Logout)
		auth.GET("/me", middleware.AuthMiddleware(a.cfg.JWTSecret), a.handlers.Auth.Me)
	}

	editorAuth := []gin.HandlerFunc{
		middleware.AuthMiddleware(a.cfg.JWTSecret),
		middleware.EditorMiddleware(),
	}

	router.GET("/preview/:key", append(editorAuth, a.handlers.Preview.Page)...)

	editor := router.Group("/api/editor")
	editor.Use(editorAuth...)
	editor.Use(middleware.CSRFMiddleware())
	{
		editor.GET("/config", a.handlers.Editor.GetConfig)
		editor.POST("/sessions", middleware.RateLimitMiddleware(a.limits, "sessions", apiLimit), a.handlers.Editor.OpenSession)

		sessions := editor.Group("/sessions/:key")
		sessions.GET("", a.handlers.Editor.GetSession)
		sessions.DELETE("", a.handlers.Editor.CloseSession)
		sessions.PUT("/page", a.handlers.Editor.ChangePage)
		sessions.POST("/blocks", a.handlers.Editor.InsertBlock)
		sessions.PATCH("/blocks/:blockId", a.handlers.Editor.UpdateBlock)
		sessions.DELETE("/blocks/:blockId", a.handlers.Editor.DeleteBlock)
		sessions.POST("/blocks/:blockId/move", a.handlers.Editor.MoveBlock)
		sessions.POST("/blocks/:blockId/duplicate", a.handlers.Editor.DuplicateBlock)
		sessions.POST("/blocks/:blockId/visibility", a.handlers.Editor.ToggleVisibility)
		sessions.PUT("/order", a.handlers.Editor.ReorderBlocks)
		sessions.PUT("/selection", a.handlers.Editor.SelectBlock)
		sessions.DELETE("/selection", a.handlers.Editor.ClearSelection)
		sessions.POST("/scroll", a.handlers.Editor.ScrollToBlock)
		sessions.POST("/save", middleware.RateLimitMiddleware(a.limits, "save", apiLimit), a.handlers.Editor.Save)
		sessions.GET("/preview/ws", a.handlers.Preview.Socket)

		editor.GET("/uploads", a.handlers.Upload.List)
		editor.POST("/uploads", middleware.RateLimitMiddleware(a.limits, "upload", apiLimit), a.handlers.Upload.Upload)
		editor.DELETE("/uploads/:filename", a.handlers.Upload.Delete)
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.CSRFMiddleware())
	admin.Use(middleware.RateLimitMiddleware(a.limits, "admin", apiLimit))
	{
		admin.GET("/content", a.handlers.Content.Get)
		admin.PUT("/content", a.handlers.Content.Put)
		admin.GET("/templates", a.handlers.Templates.List)
		admin.PUT("/templates/active", a.handlers.Templates.Activate)
		admin.POST("/templates/:slug/reload", a.handlers.Templates.Reload)
		admin.DELETE("/cache", func(c *gin.Context) {
			a.services.Site.InvalidateCache(c.Request.Context(), models.SiteDocument{})
			c.Status(http.StatusNoContent)
		})
	}

	site := router.Group("")
	site.Use(middleware.RateLimitMiddleware(a.limits, "site", apiLimit))
	site.GET("/", a.handlers.Site.RenderIndex)
	site.GET("/:slug", a.handlers.Site.RenderPage)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Route not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.String(http.StatusNotFound, "page not found")
	})

	a.router = router
	return nil
}
