// Package httpapi exposes the synchroniser over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rtcsync/rtcsync/clocksync"
	"github.com/rtcsync/rtcsync/errcode"
)

// Clock is what the handlers need from *clocksync.Syncer.
type Clock interface {
	ReadRTC() (time.Time, error)
	WriteRTC() (time.Time, error)
	UpdateHost() (time.Time, error)
	Temperature() (float64, error)
	Status() (clocksync.Status, error)
}

type errorResponse struct {
	Code  errcode.Code `json:"code"`
	Error string       `json:"error"`
}

type timeResponse struct {
	Time time.Time `json:"time"`
}

type temperatureResponse struct {
	TemperatureC float64 `json:"temperature_c"`
}

// New builds the router.
func New(clock Clock, log logrus.FieldLogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/time", timeHandler(clock.ReadRTC))
		api.GET("/temperature", func(c *gin.Context) {
			temp, err := clock.Temperature()
			if err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusOK, temperatureResponse{TemperatureC: temp})
		})
		api.GET("/status", func(c *gin.Context) {
			st, err := clock.Status()
			if err != nil {
				fail(c, err)
				return
			}
			c.JSON(http.StatusOK, st)
		})
		api.POST("/rtc/sync", timeHandler(clock.WriteRTC))
		api.POST("/host/sync", timeHandler(clock.UpdateHost))
	}
	return r
}

func timeHandler(op func() (time.Time, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := op()
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, timeResponse{Time: t})
	}
}

func fail(c *gin.Context, err error) {
	code := errcode.Of(err)
	c.JSON(statusFor(code), errorResponse{Code: code, Error: err.Error()})
}

func statusFor(code errcode.Code) int {
	switch code {
	case errcode.TransportOpen, errcode.TransportIO, errcode.MalformedRegister:
		return http.StatusBadGateway
	case errcode.OutOfRange:
		return http.StatusUnprocessableEntity
	case errcode.Unsupported, errcode.Unimplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("http request")
	}
}
