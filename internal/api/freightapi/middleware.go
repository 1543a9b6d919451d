package freightapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

// Claims is what the identity provider puts in a FreightDesk token. The
// subject is used as the user id when userId is absent.
type Claims struct {
	CompanyID string `json:"companyId"`
	UserID    string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) principal() tenant.Principal {
	uid := c.UserID
	if uid == "" {
		uid = c.Subject
	}
	return tenant.Principal{CompanyID: c.CompanyID, UserID: uid}
}

// Authenticate resolves the bearer token into a tenant principal.
func (a *API) Authenticate(next http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.opts.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.opts.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(a.opts.JWTSecret)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			a.fail(w, r, errs.ErrNoPrincipal)
			return
		}
		var c Claims
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), &c, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil || strings.TrimSpace(c.CompanyID) == "" {
			a.log.Debug("rejected token", logger.String("path", r.URL.Path), logger.Any("err", err))
			a.fail(w, r, errs.ErrNoPrincipal)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenant.WithPrincipal(r.Context(), c.principal())))
	})
}

// RateLimit counts requests per company. A limiter outage lets traffic through.
func (a *API) RateLimit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := tenant.PrincipalFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		allowed, n, err := a.limiter.Allow(r.Context(), p.CompanyID)
		if err != nil {
			a.log.Warn("rate limiter unavailable", logger.String("company_id", p.CompanyID), logger.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(a.limiter.Limit(), 10))
		if !allowed {
			a.log.Warn("rate limited", logger.String("company_id", p.CompanyID), logger.Int64("count", n))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited", Message: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Timeout bounds every request so a stuck store surfaces as 504.
func (a *API) Timeout(next http.Handler) http.Handler {
	if a.opts.RequestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), a.opts.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SignToken issues a token the way the identity provider does. Used by tests
// and local tooling.
func SignToken(secret string, p tenant.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		CompanyID: p.CompanyID,
		UserID:    p.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
