package server

import (
	"net/http"

	"topics_go/internal/categories"
	"topics_go/internal/middleware"
	"topics_go/internal/topics"
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterOptions - настройки HTTP-слоя, не зависящие от хранилища
type RouterOptions struct {
	CORSOrigins []string
	AuthToken   string
}

// NewRouter настраивает маршруты API поверх хранилища
func NewRouter(store storage.Store, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(opts.CORSOrigins),
	)

	// Health check endpoint, доступен без токена
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", middleware.AuthRequired(opts.AuthToken))
	categories.SetupRoutes(api, store, logger)
	topics.SetupRoutes(api, store, logger)

	for _, route := range r.Routes() {
		logger.Debug("[ROUTER] route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}
	logger.Info("[ROUTER] Routes initialized", zap.Int("count", len(r.Routes())), zap.Bool("auth", opts.AuthToken != ""))
	return r
}
