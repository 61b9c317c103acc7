package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tnqbao/gau-media-service/config"
)

const (
	ContextUserID     = "user_id"
	ContextPermission = "permission"
	ContextAuthMethod = "auth_method"

	PermissionViewer = "viewer"
)

func ExtractToken(c *gin.Context) string {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}
	return ""
}

func ParseToken(tokenString string, config *config.EnvConfig) (*jwt.Token, error) {
	secret := []byte(config.JWT.SecretKey)
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
}

// InjectClaimsToContext copies the caller identity from verified claims.
// user_id is opaque here; it only stamps audit fields.
func InjectClaimsToContext(c *gin.Context, claims jwt.MapClaims) error {
	userID, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return errors.New("Invalid user_id format")
	}
	c.Set(ContextUserID, userID)

	if permission, ok := claims["permission"].(string); ok {
		c.Set(ContextPermission, permission)
	} else {
		c.Set(ContextPermission, "")
	}
	return nil
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID := c.GetString(ContextUserID)
	if userID == "" {
		return "", errors.New("user_id is missing from context")
	}
	return userID, nil
}

// CanWrite reports whether the caller may mutate media.
func CanWrite(c *gin.Context) bool {
	return c.GetString(ContextPermission) != PermissionViewer
}
