package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-rental-marketplace/internal/container"
	handlers "github.com/oksasatya/go-rental-marketplace/internal/interface/http"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

// ServiceModule wires listing routes
// Public: GET /api/services, GET /api/services/search, GET /api/services/:id
// Protected: POST /api/services, PUT /api/services/:id
type ServiceModule struct {
	Handler *handlers.ServiceHandler
	JWT     *helpers.JWTManager
}

func NewServiceModule(h *handlers.ServiceHandler, jwt *helpers.JWTManager) *ServiceModule {
	return &ServiceModule{Handler: h, JWT: jwt}
}

func (m *ServiceModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	browse := middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIPAndPath(), nil)

	services := rg.Group("/services")
	services.GET("", browse, m.Handler.List)
	services.GET("/search", browse, m.Handler.Search)
	services.GET("/:id", browse, m.Handler.Get)

	auth := services.Group("")
	auth.Use(middleware.Auth(rdb, m.JWT, container.GetConfig().CookieName))
	auth.Use(middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("", m.Handler.Create)
		auth.PUT("/:id", m.Handler.Update)
	}
}
