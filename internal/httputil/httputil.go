package httputil

import (
	"errors"
	"net/http"

	"topics_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError отправляет сообщение об ошибке в едином формате и прекращает обработку запроса.
// Используем AbortWithStatusJSON, чтобы последующие обработчики не выполнялись, даже если забыли вернуть управление.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// RespondStoreError переводит ошибку хранилища в HTTP-ответ.
// Ошибки валидации и отсутствия записи отдаются клиенту как есть,
// всё остальное логируется и превращается в 500 с сообщением persistMsg.
func RespondStoreError(c *gin.Context, logger *zap.Logger, err error, persistMsg string) {
	var (
		nf *storage.NotFoundError
		ve *storage.ValidationError
	)
	switch {
	case errors.As(err, &ve):
		RespondError(c, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		RespondError(c, http.StatusNotFound, nf.Error())
	default:
		logger.Error("[HANDLER ERROR] "+persistMsg,
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		RespondError(c, http.StatusInternalServerError, persistMsg)
	}
}
