package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	apperrors "carrental/internal/errors"
)

type contextKey string

const AdminEmailKey contextKey = "admin_email"

// AdminAuthMiddleware accepts requests carrying a valid HS256 bearer token
// issued by the admin login endpoint.
func AdminAuthMiddleware(secret string) mux.MiddlewareFunc {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(key) == 0 || !strings.HasPrefix(header, "Bearer ") {
				apperrors.WriteError(w, apperrors.Unauthorized("missing bearer token"))
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				apperrors.WriteError(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			email, _ := claims["email"].(string)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AdminEmailKey, email)))
		})
	}
}

// AdminEmail returns the authenticated admin's email, or "".
func AdminEmail(ctx context.Context) string {
	email, _ := ctx.Value(AdminEmailKey).(string)
	return email
}
