package tiles

import "net/http"

// allowedMethods lists the methods served by Handler, in the form used by both
// the Allow and Access-Control-Allow-Methods headers.
const allowedMethods = "GET, HEAD, OPTIONS"

// SetPolicyHeaders adds the headers that every response carries regardless of
// its path or outcome: permissive CORS headers that let map clients on other
// origins issue Range requests, and the advertisement of byte-range support.
// When noCache is set, it also forbids clients from caching the response.
func SetPolicyHeaders(h http.Header, noCache bool) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowedMethods)
	h.Set("Access-Control-Allow-Headers", "Range")
	h.Set("Accept-Ranges", "bytes")

	if noCache {
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
	}
}

// WithPolicyHeaders wraps next so that its responses also carry the headers
// set by SetPolicyHeaders, for handlers mounted beside a Handler.
func WithPolicyHeaders(next http.Handler, noCache bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetPolicyHeaders(w.Header(), noCache)
		next.ServeHTTP(w, r)
	})
}
