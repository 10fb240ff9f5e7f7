package api

import (
	"fmt"
	"net/http"

	"github.com/dataspaces/syncer/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
)

var Provider = wire.NewSet(
	NewSyncScheduleAPI,
	NewCommonAPI,
	NewServer,
)

// statusCoder lets a response pick a status other than 200 while still being
// data rather than an error.
type statusCoder interface {
	HTTPStatus() int
}

func onGinBind(c *gin.Context, val any, typ string) bool {
	var err error
	switch typ {
	case "JSON":
		err = c.ShouldBindJSON(val)
	case "QUERY":
		err = c.ShouldBindQuery(val)
	default:
		err = c.ShouldBind(val)
	}
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: %s", middleware.ErrBadRequest, err.Error()))
		return false
	}
	return true
}

// onGinResponse hands errors to ErrorHandlingMiddleware, which renders them.
func onGinResponse(c *gin.Context, data any, err error) {
	if err != nil {
		_ = c.Error(err)
		return
	}
	status := http.StatusOK
	if sc, ok := data.(statusCoder); ok {
		status = sc.HTTPStatus()
	}
	c.JSON(status, data)
}
