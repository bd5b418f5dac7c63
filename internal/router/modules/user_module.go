package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-ddd-user-service/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-service/internal/interface/middleware"
)

// UserModule serves the user resource under /users:
// POST /, GET /, GET /search, GET /:id, PUT /:id, DELETE /:id
type UserModule struct {
	Handler *handlers.UserHandler
	RDB     redis.Cmdable
	// requests per minute per client IP; 0 disables limiting
	Limit  int
	Logger *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, rdb redis.Cmdable, limit int, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, RDB: rdb, Limit: limit, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.RateLimit(m.RDB, m.Limit, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP(), m.Logger))
	{
		users.POST("", m.Handler.Create)
		users.GET("", m.Handler.List)
		users.GET("/search", m.Handler.Search)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
