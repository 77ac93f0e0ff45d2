package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/admin"
)

const (
	// SessionCookie is the cookie carrying the session ticket for browsers.
	SessionCookie = "authcore_session"
	// CSRFHeader carries the form token for script clients.
	CSRFHeader = "X-CSRF-Token"
	// CSRFField carries the form token in a submitted form.
	CSRFField = "csrf_token"
)

type sessionContextKey struct{}
type adminContextKey struct{}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*authcore.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*authcore.Session)
	return sess, ok && sess != nil
}

// AdminFromContext returns the admin status stored by RequireAdmin.
func AdminFromContext(ctx context.Context) (authcore.AdminStatus, bool) {
	st, ok := ctx.Value(adminContextKey{}).(authcore.AdminStatus)
	return st, ok
}

// ClientIP records the remote address in the request context for audit
// events. Proxy headers are not trusted.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(authcore.WithClientIP(r.Context(), host)))
	})
}

// RequireSession rejects requests without a valid session ticket.
func RequireSession(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, authcore.ErrUnauthorized)
				return
			}

			ticket, ok := Ticket(r)
			if !ok {
				WriteError(w, authcore.ErrUnauthorized)
				return
			}

			sess, err := engine.ResolveSession(r.Context(), ticket)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCSRF consumes the token for form. The token is read from the
// X-CSRF-Token header, then from the csrf_token form field.
func RequireCSRF(engine *authcore.Engine, form string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || engine == nil {
				WriteError(w, authcore.ErrUnauthorized)
				return
			}

			token := r.Header.Get(CSRFHeader)
			if token == "" {
				token = r.PostFormValue(CSRFField)
			}
			if token == "" {
				WriteError(w, authcore.ErrCSRF)
				return
			}

			if err := engine.ValidateCSRFToken(r.Context(), sess.ID, token, form, 0); err != nil {
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects users whose stored role is below minRole.
func RequireAdmin(engine *authcore.Engine, minRole admin.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || engine == nil {
				WriteError(w, authcore.ErrUnauthorized)
				return
			}

			st, err := engine.IsAdmin(r.Context(), sess.UserID)
			if err != nil {
				WriteError(w, err)
				return
			}
			if !st.IsAdmin || !st.Role.AtLeast(minRole) {
				WriteError(w, authcore.ErrForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey{}, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Ticket extracts the session ticket from a bearer Authorization header or,
// failing that, from the session cookie.
func Ticket(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
