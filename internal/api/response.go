package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipick/backend/internal/apperror"
	"github.com/recipick/backend/internal/model"
)

// respondError writes the error envelope. Only the fixed client message is
// sent; causes are logged.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperror.From(err)
	status := appErr.HTTPStatus()

	fields := []zap.Field{
		zap.String("code", string(appErr.Code)),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString("request_id")),
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}
	if status >= 500 {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.InvalidInput(err)
	}
	return uint(id), nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.InvalidInput(err)
	}
	return n, nil
}

func parseFilter(times []string, serving string) (model.Filter, error) {
	filter, err := model.ParseFilter(times, serving)
	if err != nil {
		return model.Filter{}, apperror.InvalidInput(err)
	}
	return filter, nil
}
