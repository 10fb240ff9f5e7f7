package middleware

import (
	"errors"
	"net/http"

	"github.com/dataspaces/syncer/internal/biz/access"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrBadRequest marks errors caused by a malformed request.
var ErrBadRequest = errors.New("bad request")

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandlingMiddleware 统一错误处理中间件
func ErrorHandlingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "INTERNAL_ERROR",
					Message: "An internal error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
		} else {
			logger.Debug("request rejected",
				zap.Error(err),
				zap.Int("status", status),
				zap.String("path", c.Request.URL.Path))
		}
		c.JSON(status, body)
	}
}

func classify(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Code:    "BAD_REQUEST",
			Message: "Invalid request",
			Details: err.Error(),
		}
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHENTICATED",
			Message: "Caller identity is required",
		}
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "Not a member of this space",
		}
	case errors.Is(err, schedule.ErrScheduleNotFound),
		errors.Is(err, execution.ErrExecutionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Resource not found",
			Details: err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "An error occurred while processing your request",
			Details: err.Error(),
		}
	}
}
