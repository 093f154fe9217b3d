package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hpp-app/utils"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"status":  status,
			"latency": latency,
			"ip":      c.ClientIP(),
			"path":    path,
		}
		if orgID, ok := c.Get(ContextOrganizationID); ok {
			fields["organization_id"] = orgID
		}

		entry := utils.InfoLogger.WithFields(fields)
		switch {
		case status >= 500:
			utils.ErrorLogger.WithFields(fields).Error("request error " + c.Errors.String())
		case status >= 400:
			entry.Warn("request failed")
		default:
			entry.Info("request")
		}
	}
}
