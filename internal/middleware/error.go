package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/logger"
)

// WriteError renders err as `{"error":{"code","message"}}`. Only AppErrors
// reach the client as-is; internal causes and foreign errors are logged and
// never serialised.
func WriteError(c *gin.Context, err error) {
	log := logger.Named("http").With(
		"request_id", c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Errorw("unexpected error", "error", err.Error())
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		log.Errorw("app error", "code", appErr.Code, "internal", appErr.Internal.Error())
	}

	c.JSON(appErr.StatusCode, gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// ErrorHandler renders the last error attached with c.Error once the chain
// has run, unless a response was already written.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, c.Errors.Last().Err)
	}
}
