package categories

import (
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes регистрирует маршруты для работы с категориями
func SetupRoutes(r *gin.RouterGroup, store storage.Store, logger *zap.Logger) {
	h := NewHandler(store, logger)
	r.GET("/categories", h.ListCategories)
	r.GET("/categories/:id", h.GetCategory)
	r.POST("/categories", h.CreateCategory)
	r.PUT("/categories/:id", h.UpdateCategory)
	r.DELETE("/categories/:id", h.DeleteCategory)
}
