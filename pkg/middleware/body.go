package middleware

import "net/http"

// LimitBody caps request bodies at n bytes. Reads past the limit fail and
// the server closes the connection after the response.
func LimitBody(n int64) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
