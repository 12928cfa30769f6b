package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-rental-marketplace/internal/container"
	"github.com/oksasatya/go-rental-marketplace/internal/interface/middleware"
)

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar metrics, rate-limited per IP; private networks bypass the limit
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
