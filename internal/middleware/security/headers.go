package security

import (
	"net/http"
	"strconv"
	"time"
)

// dashboardCSP keeps every script, style and fetch on the dashboard's own
// origin. The dashboard has no forms, so form-action is closed.
const dashboardCSP = "default-src 'self'; script-src 'self'; style-src 'self'; " +
	"img-src 'self' data:; connect-src 'self'; object-src 'none'; " +
	"frame-ancestors 'none'; base-uri 'self'; form-action 'none'"

// HeadersConfig lists the headers written on every response. Empty values
// are not sent.
type HeadersConfig struct {
	CSP string

	// HSTS is sent only on TLS requests and only when HSTSMaxAge is positive.
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool

	FrameOptions       string
	ContentTypeOptions string
	ReferrerPolicy     string
	PermissionsPolicy  string
	OpenerPolicy       string
	ResourcePolicy     string
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   dashboardCSP,
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ContentTypeOptions:    "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		OpenerPolicy:          "same-origin",
		ResourcePolicy:        "same-origin",
	}
}

type header struct{ name, value string }

// HeadersMiddleware writes a fixed header set computed once from HeadersConfig.
type HeadersMiddleware struct {
	fixed []header
	hsts  string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{}
	for _, kv := range []header{
		{"Content-Security-Policy", cfg.CSP},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-Content-Type-Options", cfg.ContentTypeOptions},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cross-Origin-Opener-Policy", cfg.OpenerPolicy},
		{"Cross-Origin-Resource-Policy", cfg.ResourcePolicy},
	} {
		if kv.value != "" {
			h.fixed = append(h.fixed, kv)
		}
	}
	if secs := int64(cfg.HSTSMaxAge / time.Second); secs > 0 {
		h.hsts = "max-age=" + strconv.FormatInt(secs, 10)
		if cfg.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range h.fixed {
			headers.Set(kv.name, kv.value)
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", cacheControl)
			}
			next.ServeHTTP(w, r)
		})
	}
}
