package middlewares

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-media-service/config"
)

func CORSMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-User-ID", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowWildcard = true
	corsConfig.MaxAge = 12 * time.Hour

	origins := allowedOrigins(cfg)
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}

// allowedOrigins reads ALLOWED_DOMAINS (comma separated) and lets every
// subdomain of GLOBAL_DOMAIN through.
func allowedOrigins(cfg *config.EnvConfig) []string {
	var origins []string
	for _, domain := range strings.Split(cfg.CORS.AllowDomains, ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			origins = append(origins, domain)
		}
	}
	if global := strings.TrimSpace(cfg.CORS.GlobalDomain); global != "" {
		origins = append(origins, "https://"+global, "https://*."+global)
	}
	return origins
}
