package categories

import (
	"net/http"

	"topics_go/internal/httputil"
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обрабатывает HTTP-запросы, связанные с категориями
type Handler struct {
	Store  storage.Store
	Logger *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика
func NewHandler(store storage.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Logger: logger}
}

// categoryRequest - тело POST и PUT запросов
type categoryRequest struct {
	Name string `json:"name"`
}

// bind разбирает тело запроса. Некорректное тело или нестроковое поле
// дают пустое имя, и хранилище вернёт ту же ошибку валидации, что и для отсутствующего поля.
func (h *Handler) bind(c *gin.Context) categoryRequest {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Debug("[HANDLER WARN] invalid category body", zap.Error(err))
		return categoryRequest{}
	}
	return req
}

// ListCategories возвращает все категории в порядке создания
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.Store.ListCategories(c.Request.Context())
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to load categories")
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetCategory возвращает одну категорию
func (h *Handler) GetCategory(c *gin.Context) {
	category, err := h.Store.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to load category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory создаёт категорию с новым UUID
func (h *Handler) CreateCategory(c *gin.Context) {
	req := h.bind(c)
	created, err := h.Store.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to persist category")
		return
	}
	h.Logger.Info("[HANDLER] category created", zap.String("id", created.ID))
	c.JSON(http.StatusCreated, created)
}

// UpdateCategory меняет имя категории
func (h *Handler) UpdateCategory(c *gin.Context) {
	req := h.bind(c)
	updated, err := h.Store.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to persist category update")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCategory удаляет категорию вместе с её темами
func (h *Handler) DeleteCategory(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.DeleteCategory(c.Request.Context(), id); err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to delete category")
		return
	}
	h.Logger.Info("[HANDLER] category deleted", zap.String("id", id))
	c.Status(http.StatusNoContent)
}
