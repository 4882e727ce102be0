// Package middleware holds HTTP middleware for handlers built by humble.Builder.
package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/broady/humble"
)

// CORSConfig configures the CORS middleware. Empty lists take the defaults.
type CORSConfig struct {
	// AllowOrigins lists the origins a cross-domain request may come from.
	// "*" allows every origin. Default: ["*"]
	AllowOrigins []string

	// AllowMethods is answered to preflight requests.
	// Default: every method a route can declare, plus OPTIONS.
	AllowMethods []string

	// AllowHeaders is answered to preflight requests.
	// Default: ["Content-Type", "Authorization"]
	AllowHeaders []string

	// ExposeHeaders lists response headers scripts may read.
	// Default: ["Request-ID"]
	ExposeHeaders []string

	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds; 0 leaves it unset.
	MaxAge int
}

var (
	defaultMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Content-Type", "Authorization"}
	defaultExpose  = []string{humble.RequestIDHeader}
)

// CORS answers preflight requests and sets CORS headers on every other
// response. A nil config allows every origin with the defaults.
//
// Preflight OPTIONS requests never reach the wrapped handler.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = &CORSConfig{}
	}
	origins := orDefault(cfg.AllowOrigins, []string{"*"})
	anyOrigin := slices.Contains(origins, "*")
	methods := strings.Join(orDefault(cfg.AllowMethods, defaultMethods), ", ")
	headers := strings.Join(orDefault(cfg.AllowHeaders, defaultHeaders), ", ")
	expose := strings.Join(orDefault(cfg.ExposeHeaders, defaultExpose), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()

			switch {
			case !anyOrigin && origin != "" && slices.Contains(origins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			case anyOrigin && origin != "" && cfg.AllowCredentials:
				// "*" is not valid together with credentials.
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if h.Get("Access-Control-Allow-Origin") != "" {
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Expose-Headers", expose)
			}

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
