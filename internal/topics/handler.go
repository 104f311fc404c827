package topics

import (
	"net/http"

	"topics_go/internal/httputil"
	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обрабатывает HTTP-запросы, связанные с темами
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

type topicRequest struct {
	Title string `json:"title"`
}

func (h *Handler) bind(c *gin.Context) topicRequest {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Logger.Debug("[HANDLER WARN] invalid topic body", zap.Error(err))
		return topicRequest{}
	}
	return req
}

// ListTopics возвращает темы одной категории.
// Параметр :id здесь - идентификатор категории: gin требует одинаковое имя
// параметра для /categories/:id и /categories/:id/topics.
func (h *Handler) ListTopics(c *gin.Context) {
	list, err := h.Store.ListTopics(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to load topics")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetTopic(c *gin.Context) {
	topic, err := h.Store.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to load topic")
		return
	}
	c.JSON(http.StatusOK, topic)
}

// CreateTopic создаёт тему в категории; неизвестная категория даёт 404 раньше проверки заголовка
func (h *Handler) CreateTopic(c *gin.Context) {
	req := h.bind(c)
	created, err := h.Store.CreateTopic(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to persist topic")
		return
	}
	h.Logger.Info("[HANDLER] topic created", zap.String("id", created.ID), zap.String("category_id", created.CategoryID))
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateTopic(c *gin.Context) {
	req := h.bind(c)
	updated, err := h.Store.UpdateTopic(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to persist topic update")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteTopic(c *gin.Context) {
	if err := h.Store.DeleteTopic(c.Request.Context(), c.Param("id")); err != nil {
		httputil.RespondStoreError(c, h.Logger, err, "Failed to persist topic deletion")
		return
	}
	c.Status(http.StatusNoContent)
}
