package middleware

import "net/http"

const (
	allowOrigin  = "*"
	allowMethods = "GET, POST"
	allowHeaders = "Content-Type"
	maxAge       = "3600"
)

func IsPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions
}

// WritePreflight answers a CORS preflight: no body, 204, and a policy
// cached by the browser for an hour.
func WritePreflight(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Max-Age", maxAge)
	w.WriteHeader(http.StatusNoContent)
}

// Preflight short-circuits OPTIONS requests before any parameter parsing.
// Every other response is marked readable from any origin.
func Preflight(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsPreflight(r) {
			WritePreflight(w)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		next.ServeHTTP(w, r)
	})
}
