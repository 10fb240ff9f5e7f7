package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

type ICommonAPI interface {
	// HealthCheck pings the store.
	// @GET(health)
	HealthCheck(ctx *gin.Context) (gin.H, error)
}

var _ ICommonAPI = (*CommonAPI)(nil)

// Pinger is satisfied by *orm.Storage.
type Pinger interface {
	Ping() error
}

type CommonAPI struct {
	storage Pinger
}

func NewCommonAPI(storage Pinger) *CommonAPI {
	return &CommonAPI{storage: storage}
}

func (c *CommonAPI) HealthCheck(ctx *gin.Context) (gin.H, error) {
	if err := c.storage.Ping(); err != nil {
		return gin.H{}, err
	}
	return gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	}, nil
}
