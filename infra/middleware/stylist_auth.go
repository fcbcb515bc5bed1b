package middleware

import (
	"fmt"
	"strings"

	"stylist_server/pkg/apperr"
	"stylist_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// userIDClaims are checked in order for the authenticated user id.
var userIDClaims = []string{"userId", "id", "sub"}

// JWTAuth requires a valid HS256 token and stores the user id in
// Locals("user_id") as a string.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return apperr.Unauthorized("No token, authorization denied")
		}

		userID, claims, err := parseToken(tokenString, secret)
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			return apperr.InvalidToken("Token is not valid")
		}

		c.Locals("user_id", userID)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// OptionalJWTAuth sets the user id when a valid token is present and never rejects.
func OptionalJWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := extractToken(c); tokenString != "" {
			if userID, claims, err := parseToken(tokenString, secret); err == nil {
				c.Locals("user_id", userID)
				c.Locals("claims", claims)
			}
		}
		return c.Next()
	}
}

// extractToken reads the bearer header, then x-auth-token, then the token
// query parameter that EventSource clients use.
func extractToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := c.Get("x-auth-token"); token != "" {
		return token
	}
	return c.Query("token")
}

func parseToken(tokenString, secret string) (string, jwt.MapClaims, error) {
	if secret == "" {
		return "", nil, fmt.Errorf("JWT secret not configured")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", nil, err
	}
	if !token.Valid {
		return "", nil, fmt.Errorf("invalid token")
	}

	for _, key := range userIDClaims {
		if id, ok := claims[key].(string); ok && strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id), claims, nil
		}
	}
	return "", nil, fmt.Errorf("missing user id in token")
}
