// Package middleware provides HTTP middleware for the API server.
package middleware

import "net/http"

// allowMethods lists the methods advertised on preflight responses.
const allowMethods = "POST, GET, OPTIONS, PUT, DELETE, PATCH"

// CORS applies the service's permissive cross-origin policy: any origin, any
// method, any header, credentials allowed. Because credentials are allowed,
// the request Origin is echoed back instead of "*" (browsers reject the
// wildcard together with Allow-Credentials). Preflight requests are answered
// here and never reach the handlers.
//
// This is a deliberate reproduction of the service's historical default;
// restrict the origins before exposing it beyond trusted networks.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)

			if requestedHeaders := r.Header.Get("Access-Control-Request-Headers"); requestedHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", requestedHeaders)
			} else {
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}

			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}
