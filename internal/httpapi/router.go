package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leganyst/ordering-platform/internal/config"
)

// NewRouter собирает gin-движок: CORS, логирование запросов, /health, /metrics и API.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS(cfg.HTTP.CORSOrigins))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := Auth(h.identity, config.AdminRole)
	staff := Auth(h.identity, cfg.Auth.StaffRoles()...)
	anyone := Auth(h.identity)

	var loginLimiter *IPLimiter
	if cfg.HTTP.LoginRate > 0 {
		loginLimiter = NewIPLimiter(cfg.HTTP.LoginRate, time.Minute)
	}

	a := r.Group("/auth")
	{
		a.POST("/login", RateLimit(loginLimiter), h.Login)
		a.POST("/token", h.RefreshToken)
		a.POST("/register", admin, h.Register)
	}

	o := r.Group("/orders", staff)
	{
		o.POST("", h.CreateOrder)
		o.GET("", h.ListOrders)
		o.GET("/:id", h.GetOrder)
		o.GET("/:id/events", h.ListOrderEvents)
		o.PUT("/:id/complete", h.CompleteOrder)
	}

	p := r.Group("/products")
	{
		p.GET("", anyone, h.ListProducts)
		p.GET("/:id", anyone, h.GetProduct)
		p.POST("", admin, h.CreateProduct)
		p.PUT("/:id", admin, h.UpdateProductPrice)
		p.DELETE("/:id", admin, h.DeleteProduct)
		p.POST("/:id/role", admin, h.AddProductRole)
		p.POST("/:id/variant", admin, h.AddVariant)
		p.POST("/:id/ingredient", admin, h.AddIngredient)
	}

	s := r.Group("/subcategories")
	{
		s.GET("", anyone, h.ListSubcategories)
		s.POST("", admin, h.CreateSubcategory)
		s.DELETE("/:id", admin, h.DeleteSubcategory)
	}

	m := r.Group("/menu")
	{
		m.GET("", anyone, h.ListMenus)
		m.GET("/:id", anyone, h.GetMenu)
		m.POST("", admin, h.CreateMenu)
		m.POST("/:id/product", admin, h.AddMenuProduct)
		m.POST("/:id/role", admin, h.AddMenuRole)
	}

	u := r.Group("/users")
	{
		u.GET("", admin, h.ListUsers)
		u.GET("/:username", anyone, h.GetUser)
		u.PUT("", anyone, h.ChangePassword)
		u.DELETE("", admin, h.DeleteUser)
	}

	return r
}
