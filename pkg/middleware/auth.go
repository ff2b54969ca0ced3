package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig lists the credentials Auth accepts. Token is a static API
// token; JWTSecret verifies HMAC-signed bearer tokens. With both empty the
// middleware is a pass-through.
type AuthConfig struct {
	Token     string
	JWTSecret []byte
}

func (c AuthConfig) enabled() bool {
	return c.Token != "" || len(c.JWTSecret) > 0
}

// Auth rejects API requests without a valid credential, sent either as
// "Authorization: Bearer <credential>" or in the X-API-Key header. Health
// endpoints and CORS preflights are exempt.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := extractToken(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api token")
				return
			}
			if !cfg.accepts(key) {
				writeError(w, http.StatusUnauthorized, "invalid api token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c AuthConfig) accepts(key string) bool {
	if c.Token != "" && subtle.ConstantTimeCompare([]byte(key), []byte(c.Token)) == 1 {
		return true
	}
	if len(c.JWTSecret) > 0 {
		return validJWT(key, c.JWTSecret) == nil
	}
	return false
}

func validJWT(tokenStr string, secret []byte) error {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
