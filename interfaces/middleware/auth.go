package middleware

import (
	"errors"
	"net/http"
	"strings"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDKey = "user_id"

// Auth accepts HS256 bearer tokens signed with secretKey and stores the caller
// (sub, or iss for older tokens) under UserIDKey.
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authorization := ctx.GetHeader("Authorization")
		raw, found := strings.CutPrefix(authorization, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			unauthorized(ctx, "Unauthorized")
			return
		}
		if secretKey == "" {
			unauthorized(ctx, "Unauthorized")
			return
		}

		claims, err := getClaim(strings.TrimSpace(raw), secretKey)
		if err != nil {
			logger.GetLogger().WithField("error", err).Debug("Rejected bearer token")
			unauthorized(ctx, abort(err))
			return
		}

		userID := claims.Subject
		if userID == "" {
			userID = claims.Issuer
		}
		if userID == "" {
			unauthorized(ctx, "Token has no subject")
			return
		}
		ctx.Set(UserIDKey, userID)
		ctx.Next()
	}
}

func abort(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "That's not even a token"
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return "Timing is everything"
	default:
		return "Couldn't handle this token"
	}
}

func getClaim(raw, secretKey string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

func unauthorized(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure(msg))
}
