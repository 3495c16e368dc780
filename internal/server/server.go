// Package server assembles the HTTP router: ambient middleware, the JSON API under the configured
// prefix and the server-rendered admin pages.
package server

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/internal/handler"
	"github.com/noah-isme/incident-admin/internal/middleware"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/service"
	"github.com/noah-isme/incident-admin/internal/web"
	"github.com/noah-isme/incident-admin/pkg/config"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
	"github.com/noah-isme/incident-admin/pkg/logger"
	corsmiddleware "github.com/noah-isme/incident-admin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/incident-admin/pkg/middleware/requestid"
	"github.com/noah-isme/incident-admin/pkg/response"
)

// Authenticator resolves a session cookie into its session and user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, *models.UserInfo, error)
}

// AuditWriter persists audit entries for audited routes.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Handlers groups the HTTP handlers mounted by the server.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Pages   *handler.PageHandler
	Metrics *handler.MetricsHandler
}

// Dependencies are the collaborators the router needs besides the handlers.
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Metrics       *service.MetricsService
	Authenticator Authenticator
	Audit         AuditWriter
	Cookie        middleware.CookieConfig
}

// Server owns the gin engine.
type Server struct {
	deps     Dependencies
	handlers Handlers
	router   *gin.Engine
}

var managers = []models.UserRole{models.RoleAdmin, models.RoleSuperAdmin}

// New builds the router.
func New(deps Dependencies, handlers Handlers) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	s := &Server{deps: deps, handlers: handlers, router: gin.New()}
	s.router.SetHTMLTemplate(tmpl)
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Router exposes the engine for http.Server and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(reqidmiddleware.Middleware())
	s.router.Use(logger.GinMiddleware(s.deps.Logger))
	s.router.Use(corsmiddleware.New(s.deps.Config.CORS.AllowedOrigins))
	s.router.Use(middleware.Metrics(s.deps.Metrics))
	s.router.Use(middleware.WithResponseMeta())
	s.router.Use(middleware.LoadSession(s.deps.Authenticator, s.deps.Cookie, s.deps.Logger))
}

func (s *Server) setupRoutes() {
	cfg := s.deps.Config
	h := s.handlers

	s.router.GET("/health", h.Metrics.Health)
	s.router.GET("/ready", h.Metrics.Ready)
	s.router.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := s.router.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", h.Auth.Me)

		users := api.Group("/users", middleware.RequireSession(), middleware.RequireRoles(managers...))
		users.GET("", h.Users.List)
		users.POST("/list", h.Users.Query)
		users.GET("/export", middleware.Audit(s.deps.Audit, models.AuditActionUserExport, "users"), h.Users.Export)
		users.POST("/bulk-delete", h.Users.BulkDelete)
		users.GET("/:id", h.Users.Get)
		users.PUT("/:id", h.Users.Update)
		users.DELETE("/:id", h.Users.Delete)
	}

	s.router.GET("/", h.Pages.LoginPage)
	s.router.POST("/login", h.Pages.LoginSubmit)
	s.router.POST("/logout", h.Pages.LogoutSubmit)
	s.router.GET("/dashboard", middleware.RequirePageSession(), h.Pages.Dashboard)

	admin := s.router.Group("/admin/users", middleware.RequirePageRoles(managers...))
	{
		admin.GET("", h.Pages.UsersPage)
		admin.GET("/table", h.Pages.UsersTable)
		admin.POST("/bulk-delete", h.Pages.BulkDeleteSubmit)
		admin.GET("/:id", h.Pages.UserDetail)
		admin.GET("/:id/edit", h.Pages.EditForm)
		admin.POST("/:id/edit", h.Pages.EditSubmit)
		admin.POST("/:id/delete", h.Pages.DeleteSubmit)
	}

	s.router.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
}
