package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/common"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/logging"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/access"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/server/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	resendLimitMsg = "Gagal mengirim OTP sebanyak %d kali, coba lagi dalam 1x24 jam/besok"
	verifyLimitMsg = "Anda telah gagal mencoba sebanyak %d kali, silakan coba lagi dalam 1x24 jam"
)

// observe logs every request and feeds the HTTP metrics, labelled by route
// pattern rather than raw path. Records logged while serving the request
// carry its request id.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := logging.WithAttrs(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		a.metrics.ObserveHTTP(r.Method, route, status, start)
		a.logger.Info(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// bearerToken reads the session token from the Authorization header and
// falls back to the session cookie.
func bearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get(common.AuthorizationHeaderName), common.BearerPrefix); ok {
		if token := strings.TrimSpace(after); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// authenticate rejects requests without a valid session.
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := a.guard.Authenticate(ctx, bearerToken(r))
		if err != nil {
			if errors.Is(err, common.ErrUnauthenticated) {
				a.logger.Debug(ctx, "unauthenticated request", "path", r.URL.Path, "error", err)
			}
			a.writeError(w, r, err)
			return
		}

		ctx = logging.WithAttrs(access.WithIdentity(ctx, id), "account_id", id.AccountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identify attaches the caller's identity when a valid session is present
// and otherwise lets the request through anonymously.
func (a *API) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := a.guard.Authenticate(ctx, token)
		if err != nil {
			if !errors.Is(err, common.ErrUnauthenticated) {
				a.logger.Warn(ctx, "identity lookup failed", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(access.WithIdentity(ctx, id)))
	})
}

func (a *API) requireRoles(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(access.IdentityFrom(r.Context()), allowed...); err != nil {
				a.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// limitedEmail peeks at the JSON body for the e-mail address the request is
// about and restores the body for the handler.
func limitedEmail(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil {
		return ""
	}

	var payload struct {
		EmailAddress string `json:"emailAddress"`
	}
	// decoded like decodeJSON so both read the same address
	if json.NewDecoder(bytes.NewReader(body)).Decode(&payload) != nil {
		return ""
	}
	return models.NormalizeEmail(payload.EmailAddress)
}

// rateLimit caps calls to one endpoint per client IP and, when the body
// names one, per e-mail address. A request is refused when either budget is
// spent. Limiter failures let the request through.
func (a *API) rateLimit(endpoint, msg string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := clientIP(r)
			email := limitedEmail(r)

			keys := []string{endpoint + ":ip:" + ip}
			if email != "" {
				keys = append(keys, endpoint+":email:"+email)
			}

			var d ratelimit.Decision
			for i, key := range keys {
				kd, err := a.limiter.Allow(ctx, key)
				if err != nil {
					a.logger.Error(ctx, "rate limiter unavailable", "endpoint", endpoint, "error", err)
					next.ServeHTTP(w, r)
					return
				}
				if i == 0 || stricter(kd, d) {
					d = kd
				}
			}

			reset := strconv.Itoa(int(math.Ceil(d.ResetIn.Seconds())))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", reset)

			if !d.Allowed {
				a.metrics.IncRateLimited(endpoint)
				a.logger.Warn(ctx, "rate limited", "endpoint", endpoint, "ip", ip, "email", email)
				w.Header().Set("Retry-After", reset)
				fail(w, http.StatusTooManyRequests, fmt.Sprintf(msg, d.Limit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// stricter reports whether a should be reported over b: a refusal beats an
// allowance, then the smaller remaining budget wins.
func stricter(a, b ratelimit.Decision) bool {
	if a.Allowed != b.Allowed {
		return !a.Allowed
	}
	if a.Remaining != b.Remaining {
		return a.Remaining < b.Remaining
	}
	return a.ResetIn > b.ResetIn
}
