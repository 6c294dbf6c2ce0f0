package security

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/util"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

type Claims struct {
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateAccessToken : HS512 access token for userUUID
func (service *JWTService) GenerateAccessToken(userUUID string) (string, error) {
	if service.SecretKey == "" {
		return "", errors.New("jwt secret key is not configured")
	}

	ttl, err := time.ParseDuration(service.AccessTokenTTL)
	if err != nil {
		return "", util.LogError("[JWTService] invalid access token ttl", err)
	}

	now := time.Now()
	claims := Claims{
		UserUUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.Issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(service.SecretKey))
	if err != nil {
		return "", util.LogError("[JWTService] failed to sign token", err)
	}
	return token, nil
}

// ValidateJWT : parses the token, only HS512 is accepted
func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	claims := &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(service.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, model.NewError(model.KindUnauthorized, "invalid token", err)
	}
	if !jwtToken.Valid || claims.UserUUID == "" {
		return nil, model.NewError(model.KindUnauthorized, "invalid token", nil)
	}

	return claims, nil
}

func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		authorizationHeader := request.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			util.HandleError(writer, model.KindUnauthorized, "missing bearer token")
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")
		claims, err := jwtService.ValidateJWT(token)
		if err != nil {
			zap.L().Debug("[JWTMiddleware] rejected token", zap.Error(err))
			util.HandleError(writer, model.KindUnauthorized, "invalid token")
			return
		}

		req := request.WithContext(WithClaims(request.Context(), claims))
		next.ServeHTTP(writer, req)
	}
}

// WithClaims : puts claims into ctx the way the middleware does
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, model.NewError(model.KindUnauthorized, "user is not authenticated", nil)
	}
	return claims, nil
}
