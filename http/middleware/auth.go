package middlewares

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tnqbao/gau-media-service/config"
	"github.com/tnqbao/gau-media-service/utils"
)

const (
	// TimestampTolerance is the maximum allowed time difference in seconds
	TimestampTolerance = 300

	// PermissionService is granted to HMAC-authenticated internal callers.
	PermissionService = "service"
)

// AuthMiddleware accepts either a Bearer JWT or an internal HMAC signature:
//
//	Authorization: Bearer <token>
//	Authorization: HMAC <timestamp>:<signature>   (with X-User-ID)
func AuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if strings.HasPrefix(authHeader, "HMAC ") {
			handleHMACAuth(c, cfg, authHeader)
			return
		}

		tokenStr := utils.ExtractToken(c)
		if tokenStr == "" {
			utils.JSON401(c, "Authorization token is required")
			return
		}
		handleJWTAuth(c, cfg, tokenStr)
	}
}

func handleJWTAuth(c *gin.Context, cfg *config.EnvConfig, tokenStr string) {
	parsedToken, err := utils.ParseToken(tokenStr, cfg)
	if err != nil || !parsedToken.Valid {
		utils.JSON401(c, "Invalid or expired token")
		return
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		utils.JSON401(c, "Invalid token claims")
		return
	}
	if err := utils.InjectClaimsToContext(c, claims); err != nil {
		utils.JSON401(c, "Invalid claims")
		return
	}
	c.Set(utils.ContextAuthMethod, "jwt")

	c.Next()
}

// handleHMACAuth verifies a request signed by another internal service with
// the shared PRIVATE_KEY.
func handleHMACAuth(c *gin.Context, cfg *config.EnvConfig, authHeader string) {
	if cfg.PrivateKey == "" {
		utils.JSON401(c, "HMAC authentication is not enabled")
		return
	}

	hmacValue := strings.TrimPrefix(authHeader, "HMAC ")
	parts := strings.SplitN(hmacValue, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		utils.JSON401(c, "Invalid HMAC authorization format. Expected: HMAC <timestamp>:<signature>")
		return
	}

	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		utils.JSON401(c, "Invalid HMAC timestamp")
		return
	}

	// Anti-replay protection: check timestamp is within tolerance
	if utils.Abs(time.Now().Unix()-timestamp) > TimestampTolerance {
		utils.JSON401(c, "Request timestamp expired")
		return
	}

	userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if userID == "" {
		utils.JSON401(c, "X-User-ID header is required")
		return
	}

	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, err = io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.JSON413(c, "Request body is too large")
				return
			}
			utils.JSON400(c, "Failed to read request body")
			return
		}
		// Restore body for subsequent handlers
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	stringToSign := utils.BuildStringToSign(
		c.Request.Method,
		c.Request.URL.Path,
		timestamp,
		userID,
		utils.HashBodySHA256(bodyBytes),
	)
	serverSignature := utils.ComputeHMACSHA256(cfg.PrivateKey, stringToSign)

	if !utils.SecureCompare(serverSignature, parts[1]) {
		utils.JSON401(c, "Invalid signature")
		return
	}

	c.Set(utils.ContextUserID, userID)
	c.Set(utils.ContextPermission, PermissionService)
	c.Set(utils.ContextAuthMethod, "hmac")

	c.Next()
}

// WriteGuardMiddleware rejects callers without write capability.
func WriteGuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.CanWrite(c) {
			utils.JSON403(c, "Write access is required")
			return
		}
		c.Next()
	}
}

// BodyLimitMiddleware caps the request body size. It runs ahead of
// authentication, which reads the body to verify HMAC signatures.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// defaultMaxBodyBytes caps bodies when MEDIA_MAX_BYTES does not.
const defaultMaxBodyBytes = 64 << 20

// uploadBodyLimit allows a base64 data URL of maxBytes plus the JSON envelope.
func uploadBodyLimit(maxBytes int64) int64 {
	if maxBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return maxBytes/3*4 + 64*1024
}
