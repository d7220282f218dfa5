package api

import (
	"net/http"
	"time"

	"github.com/ravenpay/orderhub/config"

	"github.com/ravenpay/orderhub/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/ravenpay/orderhub"
)

var startTime = time.Now()

type Api struct {
	orderhub *orderhub.Orderhub
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/orders", a.SubmitOrder)
	router.GET("/orders/:id", a.GetOrder)
	return a.router
}

func NewAPI(o *orderhub.Orderhub) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"uptime":  time.Since(startTime).Seconds(),
			"message": "order service running",
		})
	})

	return &Api{orderhub: o, router: r}
}
