package router

import (
	"net/http"

	"fitts-go/internal/config"
	"fitts-go/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminRequired checks the bearer token against the configured bcrypt hash.
// The hash is read on every request so a reloaded config takes effect.
func AdminRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var hash string
		if conf := config.Current(); conf != nil {
			hash = conf.Server.AdminTokenHash
		}
		if hash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Experimenter access is disabled"})
			return
		}

		token, ok := utils.BearerToken(c.GetHeader("Authorization"))
		if !ok || !utils.CheckToken(hash, token) {
			log.Warn("Rejected experimenter request", zap.String("path", c.Request.URL.Path), zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
