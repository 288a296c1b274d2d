package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor-app/internal/models"
	"tailor-app/internal/utils"
)

type RouterDeps struct {
	Orders      *OrderHandler
	Auth        *AuthHandler
	Taxonomy    *TaxonomyHandler
	Sessions    utils.SessionAuthenticator
	Logger      *zap.Logger
	CORSOrigins []string
}

func SetupRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestLogger(d.Logger))

	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/taxonomy", d.Taxonomy.GetTaxonomy)
	api.POST("/order", d.Orders.CreateOrder)
	api.POST("/auth/login", d.Auth.Login)

	admin := api.Group("/")
	admin.Use(utils.AuthMiddleware(d.Sessions), utils.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/order", d.Orders.ListOrders)
		admin.GET("/order/export", d.Orders.ExportOrders)
		admin.GET("/order/:id", d.Orders.GetOrder)
		admin.GET("/auth/session", d.Auth.Session)
		admin.POST("/auth/logout", d.Auth.Logout)
	}

	return router
}
