package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-rental-marketplace/internal/container"
	handlers "github.com/oksasatya/go-rental-marketplace/internal/interface/http"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

// UserModule wires profile routes; all of them require a session
// GET /api/profile, PUT /api/profile, GET /api/profile/activity, POST /api/profile/picture, GET /api/users/nearby
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT, container.GetConfig().CookieName))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.GET("/profile/activity", m.Handler.Activity)
		auth.POST("/profile/picture", middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadPicture)
		auth.GET("/users/nearby", m.Handler.Nearby)
	}
}
