package storefrontserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/platform/i18n"
	"github.com/aromaline/storefront/internal/platform/ratelimit"
)

const (
	ctxUserKey   = "storefront.user"
	ctxTokenKey  = "storefront.token"
	ctxLocaleKey = "storefront.locale"

	// CartTokenHeader carries the guest cart token for clients without cookies.
	CartTokenHeader = "X-Cart-Token"
	cartCookie      = "cart_token"
	localeCookie    = "locale"
	cartCookieAge   = 30 * 24 * 60 * 60
)

// Authenticator resolves a bearer token to a signed-in user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*userdomain.User, error)
}

type server struct {
	auth     Authenticator
	bundle   *i18n.Bundle
	limiter  ratelimit.Limiter
	policies Policies
	logger   *slog.Logger
	onReject func(policy string)
	checkout func(outcome string)
}

func newServer(opts RouterOptions) *server {
	srv := &server{
		auth:     opts.Auth,
		bundle:   opts.I18n,
		limiter:  opts.Limiter,
		policies: opts.Policies,
		logger:   opts.Logger,
	}
	if srv.logger == nil {
		srv.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if srv.policies == (Policies{}) {
		srv.policies = DefaultPolicies()
	}
	if opts.Metrics != nil {
		srv.onReject = opts.Metrics.RecordRejection
		srv.checkout = opts.Metrics.RecordCheckout
	}
	return srv
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}
		s.logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

// authenticate attaches the user behind a valid bearer token. Invalid tokens
// leave the request anonymous; requireUser rejects them where a session is needed.
func (s *server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || s.auth == nil {
			c.Next()
			return
		}
		c.Set(ctxTokenKey, token)
		user, err := s.auth.Authenticate(c.Request.Context(), token)
		if err == nil && user != nil {
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

func (s *server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			s.respondProblem(c, problemUnauthorized("errors.session_required"))
			return
		}
		c.Next()
	}
}

// localize resolves the request locale and announces it in Content-Language.
func (s *server) localize() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := i18n.DefaultLocale
		if s.bundle != nil {
			cookie, _ := c.Cookie(localeCookie)
			profile := ""
			if user := currentUser(c); user != nil {
				profile = user.Locale
			}
			locale = s.bundle.Resolve(c.Query("lang"), cookie, profile, c.GetHeader("Accept-Language"))
		}
		c.Set(ctxLocaleKey, locale)
		c.Header("Content-Language", locale)
		c.Next()
	}
}

func (s *server) rateLimit(policy ratelimit.Policy) gin.HandlerFunc {
	return ratelimit.Middleware(s.limiter, policy,
		ratelimit.WithLogger(s.logger),
		ratelimit.WithRejectionCounter(s.onReject),
		ratelimit.WithRejectHandler(func(c *gin.Context, _ ratelimit.Policy, retryAfterSeconds int) {
			s.respondProblem(c, problemTooManyRequests(retryAfterSeconds, "errors.too_many_requests"))
		}),
	)
}

func (s *server) recordCheckout(outcome string) {
	if s.checkout != nil {
		s.checkout(outcome)
	}
}

func currentUser(c *gin.Context) *userdomain.User {
	if v, ok := c.Get(ctxUserKey); ok {
		if user, ok := v.(*userdomain.User); ok {
			return user
		}
	}
	return nil
}

func currentUserID(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}

func requestLocale(c *gin.Context) string {
	if locale := c.GetString(ctxLocaleKey); locale != "" {
		return locale
	}
	return i18n.DefaultLocale
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// guestCartToken reads the cart token from the header or cookie. With issue set,
// a missing token is minted and handed back in both.
func guestCartToken(c *gin.Context, issue bool) string {
	token := strings.TrimSpace(c.GetHeader(CartTokenHeader))
	if token == "" {
		token, _ = c.Cookie(cartCookie)
	}
	if token == "" && issue {
		token = uuid.NewString()
	}
	if token != "" {
		c.Header(CartTokenHeader, token)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cartCookie, token, cartCookieAge, "/", "", false, true)
	}
	return token
}

func (s *server) translate(c *gin.Context, key string, args ...any) string {
	if s.bundle == nil {
		return ""
	}
	return s.bundle.T(requestLocale(c), key, args...)
}
