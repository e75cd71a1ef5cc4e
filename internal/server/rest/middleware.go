package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/auth"
	"github.com/iudp/ledger/internal/server/models"
)

const callerKey = "caller"

func requestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// authRequired validates the bearer token and stores the caller in the context.
func authRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing token"})
			return
		}

		caller, err := auth.ParseToken(strings.TrimPrefix(header, common.BearerPrefix), secret)
		if err != nil {
			msg := common.ErrInvalidToken.Error()
			if errors.Is(err, common.ErrTokenExpired) {
				msg = common.ErrTokenExpired.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: msg})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) models.Caller {
	v, _ := c.Get(callerKey)
	caller, _ := v.(models.Caller)
	return caller
}
