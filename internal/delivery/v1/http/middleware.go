package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/DRSN-tech/shop-assistant/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

// usernameFromCtx возвращает имя пользователя, положенное authMiddleware.
func usernameFromCtx(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func withUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// metricsMiddleware пишет счётчик и латентность по шаблону маршрута chi.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// authMiddleware проверяет Bearer-токен и кладёт имя пользователя в контекст.
func authMiddleware(accounts usecase.AccountUC, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			username, err := accounts.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				log.Debugf("rejected token: %v", err)
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUsername(r.Context(), username)))
		})
	}
}

// adminMiddleware пропускает запрос только с верным X-Admin-Token.
// Пустой токен в конфиге закрывает админские маршруты целиком.
func adminMiddleware(token string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Warnf("admin request rejected: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				WriteError(w, e.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
