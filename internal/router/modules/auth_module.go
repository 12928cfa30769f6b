package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-rental-marketplace/internal/container"
	handlers "github.com/oksasatya/go-rental-marketplace/internal/interface/http"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
)

// AuthModule wires signup and session routes
// Public: POST /api/user/signup, POST /api/user/signup/otp, PUT /api/user/signup, POST /api/user/login
// Protected: POST /api/user/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public endpoints with IP-based rate limits
	signupLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	otpRequestLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	otpConfirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	user := rg.Group("/user")
	user.POST("/signup", signupLimiter, m.Handler.Signup)
	user.POST("/signup/otp", otpRequestLimiter, m.Handler.RequestSignupOTP)
	user.PUT("/signup", otpConfirmLimiter, m.Handler.ConfirmSignup)
	user.POST("/login", loginLimiter, m.Handler.Login)

	// Protected
	user.POST("/logout", middleware.Auth(rdb, m.JWT, container.GetConfig().CookieName), m.Handler.Logout)
}
