package topics

import (
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes регистрирует маршруты тем: вложенные в категорию и по собственному id
func SetupRoutes(r *gin.RouterGroup, store storage.Store, logger *zap.Logger) {
	h := NewHandler(store, logger)
	r.GET("/categories/:id/topics", h.ListTopics)
	r.POST("/categories/:id/topics", h.CreateTopic)
	r.GET("/topics/:id", h.GetTopic)
	r.PUT("/topics/:id", h.UpdateTopic)
	r.DELETE("/topics/:id", h.DeleteTopic)
}
