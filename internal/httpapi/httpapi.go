// Package httpapi serves the Engine over HTTP with JSON bodies.
//
//	POST /register      {"username","email","password"}  -> 201 {"user_id"}
//	POST /login         {"username","password"}          -> 200 {"user_id","username","ticket"} + session cookie
//	POST /logout        session + CSRF token for "logout"  -> 204
//	GET  /csrf/{form}   session required                  -> 200 {"token"}
//	GET  /admin/status  session required                  -> 200 {"is_admin","role"}
//	GET  /metrics       Prometheus exposition
//	GET  /healthz       liveness
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

const maxBodyBytes = 64 << 10

// logoutForm names the CSRF form that guards POST /logout.
const logoutForm = "logout"

// Options configures the handler.
type Options struct {
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// InsecureCookie drops the Secure attribute for plain-HTTP development.
	InsecureCookie bool
	// CookieMaxAge bounds the browser cookie lifetime.
	CookieMaxAge time.Duration
}

type api struct {
	engine *authcore.Engine
	opts   Options
}

// New returns the routed handler.
func New(engine *authcore.Engine, opts Options) http.Handler {
	a := &api{engine: engine, opts: opts}
	requireSession := middleware.RequireSession(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", a.register)
	mux.HandleFunc("POST /login", a.login)
	mux.Handle("POST /logout", requireSession(
		middleware.RequireCSRF(engine, logoutForm)(http.HandlerFunc(a.logout)),
	))
	mux.Handle("GET /csrf/{form}", requireSession(http.HandlerFunc(a.csrfToken)))
	mux.Handle("GET /admin/status", requireSession(http.HandlerFunc(a.adminStatus)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.ClientIP(mux)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return authcore.ErrValidation
	}
	return nil
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	res, err := a.engine.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Ticket   string `json:"ticket"`
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := a.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	ticket, _, err := a.engine.StartSession(r.Context(), user)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	http.SetCookie(w, a.sessionCookie(ticket, int(a.opts.CookieMaxAge.Seconds())))
	middleware.WriteJSON(w, http.StatusOK, loginResponse{
		UserID:   user.UserID,
		Username: user.Username,
		Ticket:   ticket,
	})
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, authcore.ErrUnauthorized)
		return
	}
	if err := a.engine.Logout(r.Context(), sess.ID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	http.SetCookie(w, a.sessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) csrfToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, authcore.ErrUnauthorized)
		return
	}

	token, err := a.engine.IssueCSRFToken(r.Context(), sess.ID, r.PathValue("form"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *api) adminStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, authcore.ErrUnauthorized)
		return
	}

	st, err := a.engine.IsAdmin(r.Context(), sess.UserID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, st)
}

func (a *api) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !a.opts.InsecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

