// Package auth guards the HTTP endpoints with basic or API key authentication.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/sha1n/relic-posts/internal/config"
	"github.com/sha1n/relic-posts/internal/metrics"
)

// HealthPath is always served without authentication.
const HealthPath = "/health"

// NewMiddleware creates an authentication middleware based on settings.
// Requests for HealthPath or any of publicPaths (exact match) skip authentication.
func NewMiddleware(settings config.AuthSettings, publicPaths ...string) (func(http.Handler) http.Handler, error) {
	var check func(*http.Request) bool
	var challenge string

	switch settings.Type {
	case config.AuthTypeNone, "":
		return func(next http.Handler) http.Handler {
			return next
		}, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		check = basicAuthCheck(settings.Basic)
		challenge = `Basic realm="relic-posts"`
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		check = apiKeyCheck(settings.APIKeys)
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}

	public := make(map[string]bool, len(publicPaths)+1)
	public[HealthPath] = true
	for _, p := range publicPaths {
		public[p] = true
	}

	authType := settings.Type
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || check(r) {
				next.ServeHTTP(w, r)
				return
			}
			metrics.AuthFailuresTotal.WithLabelValues(authType).Inc()
			if challenge != "" {
				w.Header().Set("WWW-Authenticate", challenge)
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}, nil
}

func basicAuthCheck(settings config.BasicAuthSettings) func(*http.Request) bool {
	return func(r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(settings.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(settings.Password)) == 1
		return ok && userMatch && passMatch
	}
}

// apiKeyCheck accepts a key from the X-API-Key header or an
// "Authorization: Bearer <key>" header.
func apiKeyCheck(apiKeys []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		key := requestAPIKey(r)
		if key == "" {
			return false
		}

		valid := false
		for _, validKey := range apiKeys {
			// No early exit, every key is compared.
			if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
				valid = true
			}
		}
		return valid
	}
}

func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
