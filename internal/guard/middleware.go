package guard

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes bounds how much of a request body the guards will buffer.
const MaxBodyBytes = 1 << 20

// DenyFunc writes the response for a rejected request.
type DenyFunc func(w http.ResponseWriter, r *http.Request, d *Denial)

// Middleware evaluates chain against route for every request. The body is
// buffered for the guards and restored so the handler can decode it again.
func Middleware(chain Chain, route Route, onDeny DenyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := &Request{Method: r.Method}
			if r.Body != nil && r.Body != http.NoBody {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
				_ = r.Body.Close()
				if err != nil {
					onDeny(w, r, deny(ReasonBadRequest, "request body too large or unreadable"))
					return
				}
				req.Body = body
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			var principal *Principal
			if p, ok := PrincipalFrom(r.Context()); ok {
				principal = &p
			}

			if err := chain.Evaluate(principal, route, req); err != nil {
				var d *Denial
				if !errors.As(err, &d) {
					d = deny(ReasonForbidden, "Forbidden resource")
				}
				onDeny(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
