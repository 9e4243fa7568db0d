package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/service/auth"
)

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Products *handlers.ProductHandler
	Shopping *handlers.ShoppingHandler
	Labels   *handlers.LabelHandler
	Notify   *handlers.NotifyHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, resolver auth.Resolver, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	if m != nil {
		r.Use(metricsMiddleware(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.Use(sessionMiddleware(resolver))
	r.SetHTMLTemplate(handlers.LabelTemplate())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.POST("/recover", h.Auth.Recover)
	authGroup.PUT("/password", requireSession(true), h.Auth.UpdatePassword)

	r.GET("/api/session", h.Auth.Session)

	api := r.Group("/api", requireSession(false))
	api.GET("/products", h.Products.List)
	api.POST("/products", h.Products.Create)
	api.GET("/products/options", h.Products.Options)
	api.GET("/products/suggest", h.Products.Suggest)
	api.GET("/products/:id", h.Products.Get)
	api.PUT("/products/:id", h.Products.Update)
	api.GET("/products/:id/operations", h.Products.History)
	api.GET("/products/:id/qr.png", h.Products.QRCode)
	api.POST("/products/:id/adjustments", h.Products.Adjust)
	api.POST("/products/:id/quick", h.Products.Quick)
	api.POST("/scan", h.Products.Scan)

	api.GET("/shopping-list", h.Shopping.List)
	api.POST("/shopping-list", h.Shopping.Add)
	api.PATCH("/shopping-list/:id", h.Shopping.Toggle)
	api.DELETE("/shopping-list/:id", h.Shopping.Remove)

	api.POST("/notifications", h.Notify.SendMessage)

	r.GET("/labels", requireSession(false), h.Labels.Sheet)

	logger.Info("router initialized")

	return r
}
