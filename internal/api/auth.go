package api

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "voxel-terrain"

// EditorClaims claims токена инспектора
type EditorClaims struct {
	CanEdit bool `json:"can_edit"`
	jwt.RegisteredClaims
}

// IssueToken выпускает токен, подписанный HS256
func IssueToken(secret []byte, subject string, canEdit bool, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims := &EditorClaims{
		CanEdit: canEdit,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken проверяет подпись, срок действия и издателя токена
func ValidateToken(secret []byte, tokenString string) (*EditorClaims, error) {
	claims := &EditorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, GenericResponse{Success: false, Message: message})
	c.Abort()
}

// jwtMiddleware проверяет JWT токен в заголовке Authorization
func (s *InspectorServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(s.jwtSecret) == 0 {
			unauthorized(c, "Правка отключена: не задан секрет JWT")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Отсутствует токен авторизации")
			return
		}

		// Проверяем формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Неверный формат токена")
			return
		}

		claims, err := ValidateToken(s.jwtSecret, parts[1])
		if err != nil {
			s.logger.Debug("Отклонён токен: %v", err)
			unauthorized(c, "Недействительный токен")
			return
		}

		c.Set("subject", claims.Subject)
		c.Set("can_edit", claims.CanEdit)
		c.Next()
	}
}

// editorMiddleware пропускает только токены с правом правки
func (s *InspectorServer) editorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("can_edit") {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Недостаточно прав доступа",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// corsMiddleware разрешает только источники из списка
func (s *InspectorServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && slices.Contains(s.allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		}
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
