package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/middleware"
	v1 "github.com/NikSneMC/prod-2025-promo-api/internal/api/v1"
	"github.com/NikSneMC/prod-2025-promo-api/internal/auth"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Promos     *service.PromoService
	Engagement *service.EngagementService
	Redemption *service.RedemptionService
}

type Options struct {
	TokenStore     *auth.TokenStore
	Logger         *zap.Logger
	AllowOrigins   []string
	ActivateLimit  int
	ActivateWindow time.Duration
	// ReadyCheck reports whether downstream stores answer; nil means always
	// ready.
	ReadyCheck func(ctx context.Context) error
}

// NewRouter assembles the whole HTTP surface: public auth routes, the
// company-scoped business tree, the user tree, and the operational
// endpoints.
func NewRouter(services Services, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		if opts.ReadyCheck != nil {
			if err := opts.ReadyCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/internal/metrics", gin.WrapH(promhttp.Handler()))

	root := router.Group("/api")
	root.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "PROOOOOOOOOOOOOOOOOD")
	})

	business := root.Group("/business")
	v1.RegisterBusinessAuthRoutes(business, services.Auth)

	businessAuthed := business.Group("")
	businessAuthed.Use(middleware.Auth(opts.TokenStore, token.KindCompany))
	v1.RegisterBusinessPromoRoutes(businessAuthed, services.Promos)

	user := root.Group("/user")
	v1.RegisterUserAuthRoutes(user, services.Auth)

	userAuthed := user.Group("")
	userAuthed.Use(middleware.Auth(opts.TokenStore, token.KindUser))
	v1.RegisterProfileRoutes(userAuthed, services.Users)
	v1.RegisterFeedRoutes(userAuthed, services.Promos, services.Users)
	v1.RegisterEngagementRoutes(userAuthed, services.Engagement)
	v1.RegisterActivationRoutes(userAuthed, services.Redemption, opts.ActivateLimit, opts.ActivateWindow)

	return router
}
