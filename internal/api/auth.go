package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"akkord/internal/config"
)

var errPermissionDenied = fmt.Errorf("permission denied")

type clientContextKey struct{}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg      config.APIConfig
	limiters limiterSet
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	return &HTTPAuth{
		cfg:      cfg,
		limiters: newLimiterSet(cfg.RateLimit),
	}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Пробы живости ходят без ключа
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			client, err := a.checkAuth(r)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), clientContextKey{}, client))
		}

		if !a.limiters.allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) (config.APIClientKey, error) {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey()))
	if apiKey == "" {
		return config.APIClientKey{}, fmt.Errorf("missing api key header")
	}

	// Перебор всех ключей с constant-time сравнением, без early-exit по map
	var found *config.APIClientKey
	for i := range a.cfg.Auth.APIKeys {
		k := &a.cfg.Auth.APIKeys[i]
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(apiKey)) == 1 {
			found = k
		}
	}
	if found == nil {
		return config.APIClientKey{}, fmt.Errorf("invalid api key")
	}

	if err := checkPermissions(*found, r); err != nil {
		return config.APIClientKey{}, err
	}
	return *found, nil
}

func checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermissionHTTP(r)
	if required == "" {
		return nil
	}
	if hasPermission(client, required) {
		return nil
	}
	return errPermissionDenied
}

func hasPermission(client config.APIClientKey, required string) bool {
	for _, p := range client.Permissions {
		p = strings.TrimSpace(p)
		if p == required || p == "admin" {
			return true
		}
	}
	return false
}

// requiredPermissionHTTP сопоставляет пути с правами ключа.
// Ключ с правом "admin" проходит любую проверку.
func requiredPermissionHTTP(r *http.Request) string {
	path := r.URL.Path
	switch {
	case path == "/healthz":
		return ""
	case strings.HasSuffix(path, "/reconcile"):
		return "admin"
	case path == "/api/v1/items" && r.Method == http.MethodPost:
		return "admin"
	case path == "/api/v1/users" && r.Method == http.MethodPost:
		return "admin"
	case strings.HasPrefix(path, "/api/v1/orders") && r.Method != http.MethodGet:
		return "admin"
	case strings.HasSuffix(path, "/book"),
		strings.HasSuffix(path, "/purchase"),
		strings.HasSuffix(path, "/cancel"):
		return "write:reservations"
	case strings.HasSuffix(path, "/topup"):
		return "write:balance"
	case strings.HasPrefix(path, "/api/v1/users"):
		return "read:users"
	case strings.HasPrefix(path, "/api/v1/orders"):
		return "read:orders"
	case strings.HasPrefix(path, "/api/v1/items"):
		return "read:items"
	}
	return ""
}

// clientFromContext возвращает ключ клиента, прошедшего аутентификацию.
// При выключенной аутентификации клиент считается админом.
func clientFromContext(ctx context.Context, authEnabled bool) (config.APIClientKey, bool) {
	if !authEnabled {
		return config.APIClientKey{Permissions: []string{"admin"}}, true
	}
	client, ok := ctx.Value(clientContextKey{}).(config.APIClientKey)
	return client, ok
}

func isAdminClient(client config.APIClientKey) bool {
	return hasPermission(client, "admin")
}

func (a *HTTPAuth) headerAPIKey() string {
	h := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		h = "x-api-key"
	}
	return h
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey())); apiKey != "" {
		return apiKey
	}
	return remoteHost(r)
}
