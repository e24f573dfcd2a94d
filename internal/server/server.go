package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/platebook/platebook/internal/audit"
	auditdomain "github.com/platebook/platebook/internal/audit/domain"
	"github.com/platebook/platebook/internal/auth"
	authdomain "github.com/platebook/platebook/internal/auth/domain"
	"github.com/platebook/platebook/internal/auth/session"
	"github.com/platebook/platebook/internal/book"
	bookdomain "github.com/platebook/platebook/internal/book/domain"
	"github.com/platebook/platebook/internal/cloudmetrics"
	"github.com/platebook/platebook/internal/config"
	"github.com/platebook/platebook/internal/event"
	"github.com/platebook/platebook/internal/importer"
	"github.com/platebook/platebook/internal/invitation"
	invitationdomain "github.com/platebook/platebook/internal/invitation/domain"
	"github.com/platebook/platebook/internal/observability"
	obsmiddleware "github.com/platebook/platebook/internal/observability/logger"
	obsmetrics "github.com/platebook/platebook/internal/observability/metrics"
	obstracing "github.com/platebook/platebook/internal/observability/tracing"
	"github.com/platebook/platebook/internal/providers"
	"github.com/platebook/platebook/internal/providers/storage"
	"github.com/platebook/platebook/internal/ratelimit"
	"github.com/platebook/platebook/internal/recipe"
	recipedomain "github.com/platebook/platebook/internal/recipe/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	cloudmetrics.Module,
	fx.Provide(registerGin),
	audit.Module,
	event.Module,
	auth.Module,
	session.Module,
	providers.Module,
	ratelimit.Module,
	book.Module,
	recipe.Module,
	invitation.Module,
	importer.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine               *gin.Engine
	cfg                  config.Config
	db                   *gorm.DB
	authsvc              authdomain.Service
	sessions             *session.Manager
	genID                *snowflake.Node
	auditSvc             auditdomain.Service
	bookSvc              bookdomain.Service
	recipeSvc            recipedomain.Service
	invitationSvc        invitationdomain.Service
	importSvc            importer.Service
	storage              storage.Provider
	limiter              *ratelimit.Limiter
	invitePreviewLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	GenID         *snowflake.Node
	AuditSvc      auditdomain.Service
	BookSvc       bookdomain.Service
	RecipeSvc     recipedomain.Service
	InvitationSvc invitationdomain.Service
	ImportSvc     importer.Service
	Storage       storage.Provider
	Limiter       *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:               p.Gin,
		cfg:                  p.Cfg,
		db:                   p.DB,
		authsvc:              p.Authsvc,
		sessions:             p.Sessions,
		genID:                p.GenID,
		auditSvc:             p.AuditSvc,
		bookSvc:              p.BookSvc,
		recipeSvc:            p.RecipeSvc,
		invitationSvc:        p.InvitationSvc,
		importSvc:            p.ImportSvc,
		storage:              p.Storage,
		limiter:              p.Limiter,
		invitePreviewLimiter: newRateLimiter(30, time.Minute),
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerPublicRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
	auth.GET("/me", s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Recipe Books --------
	api.GET("/books", s.ListBooks)
	api.POST("/books", s.CreateBook)
	api.GET("/books/:id", s.GetBook)
	api.PATCH("/books/:id", s.UpdateBook)
	api.DELETE("/books/:id", s.DeleteBook)

	// -------- Membership --------
	api.GET("/books/:id/members", s.ListBookMembers)
	api.DELETE("/books/:id/members/:user_id", s.RemoveBookMember)
	api.POST("/books/:id/join", s.JoinBook)
	api.POST("/books/:id/leave", s.LeaveBook)

	// -------- Publishing --------
	api.POST("/books/:id/publish", s.PublishBook)
	api.POST("/books/:id/unpublish", s.UnpublishBook)
	api.GET("/books/:id/export.pdf", s.ExportBookPDF)

	// -------- Recipes --------
	api.GET("/books/:id/recipes", s.ListRecipes)
	api.POST("/books/:id/recipes", s.CreateRecipe)
	api.GET("/recipes/:id", s.GetRecipe)
	api.PATCH("/recipes/:id", s.UpdateRecipe)
	api.DELETE("/recipes/:id", s.DeleteRecipe)
	api.GET("/categories", s.ListCategories)
	api.POST("/recipes/images", s.UploadRecipeImage)

	// -------- Invitations --------
	api.POST("/books/:id/invitations", s.InviteRateLimit(), s.CreateInvitation)
	api.GET("/books/:id/invitations", s.ListInvitations)
	api.DELETE("/books/:id/invitations/:invitation_id", s.RevokeInvitation)
	api.POST("/invitations/accept", s.AcceptInvitation)

	// -------- OCR Import --------
	api.POST("/books/:id/import", s.ImportRecipe)

	// -------- Audit --------
	api.GET("/books/:id/audit-logs", s.ListBookAuditLogs)

	if s.cfg.Environment != "production" {
		api.POST("/test/cleanup", s.TestCleanup)
	}
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	// Invitation preview is reachable without a session so the invite
	// landing page can show the book before asking the user to log in.
	public.GET("/invitations/:token", s.PreviewRateLimit(), s.GetInvitationByToken)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		// static assets (vite)
		if fileExists("./public", c.Request.URL.Path) {
			c.File("./public" + c.Request.URL.Path)
			return
		}

		// SPA fallback
		c.File("./public/index.html")
	})
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || clean == ".." {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}

	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status == http.StatusTooManyRequests:
		return "rate_limited", payload.Type
	case status >= http.StatusBadRequest:
		code := payload.Type
		if vErr := asValidationErrors(err); vErr != nil && len(vErr.Errors) > 0 {
			code = vErr.Errors[0].Code
		} else if status == http.StatusBadRequest {
			code = err.Error()
		}
		return "client_error", code
	default:
		return "", ""
	}
}
