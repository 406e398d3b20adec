package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/libs/auth"
	"github.com/md-rashed-zaman/clinicpulse/libs/config"
	"github.com/md-rashed-zaman/clinicpulse/libs/httpx"
	"github.com/redis/go-redis/v9"
)

// requireAuth verifies the dashboard's bearer token and forwards the claims
// as headers, stripping any the client tried to smuggle in.
func requireAuth(next http.Handler, jwtSecret string, jwksClient *auth.JWKSClient) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		var claims *auth.Claims
		var err error

		if jwksClient != nil {
			header, headerErr := auth.ParseHeader(token)
			if headerErr != nil {
				http.Error(w, "invalid token header", http.StatusUnauthorized)
				return
			}
			if header.Alg == "RS256" && header.Kid != "" {
				pub, keyErr := jwksClient.Get(header.Kid)
				if keyErr != nil {
					http.Error(w, "invalid token key", http.StatusUnauthorized)
					return
				}
				claims, err = auth.VerifyRS256(token, pub)
			} else {
				claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
			}
		} else {
			claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
		}
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-Clinic-Id")
		r.Header.Del("X-Role")
		r.Header.Set("X-User-Id", claims.Sub)
		r.Header.Set("X-Clinic-Id", claims.ClinicID)
		r.Header.Set("X-Role", claims.Role)

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware prefers the Redis fixed-window limiter when Redis is
// configured; a single instance falls back to the in-memory one.
func rateLimitMiddleware(rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if limitPerMinute <= 0 {
		limitPerMinute = 120
	}

	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "kpi:rl"))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
		return rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	}

	rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
	logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	return rl.Middleware()
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
