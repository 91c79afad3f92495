package adminauth

import (
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"time"
	"vetgate/lib/api/cont"
	"vetgate/lib/api/response"
	"vetgate/lib/sl"
)

// Credentials checks a submitted username/password pair against the current
// admin account state.
type Credentials interface {
	AdminCheckCredentials(username, password string) bool
}

// New gates the provisioning area behind HTTP basic auth. There are no
// sessions: every admin request carries the credentials.
func New(log *slog.Logger, creds Credentials) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.adminauth")
	log.With(mod).Info("admin auth middleware initialized")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			xRemote := r.Header.Get("X-Forwarded-For")
			if xRemote != "" {
				remote = xRemote
			}
			logger := log.With(
				mod,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", remote),
				slog.String("request_id", id),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				logger.With(
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				).Info("incoming admin request")
			}()

			username, password, ok := r.BasicAuth()
			if !ok {
				logger = logger.With(sl.Err(fmt.Errorf("authorization header not found")))
				authFailed(ww, r, "Authorization required")
				return
			}
			logger = logger.With(slog.String("user", username))

			if creds == nil || !creds.AdminCheckCredentials(username, password) {
				logger = logger.With(sl.Err(fmt.Errorf("invalid credentials")))
				authFailed(ww, r, "Unauthorized")
				return
			}

			ctx := cont.PutAdmin(r.Context(), username)
			ww.Header().Set("X-Request-ID", id)
			next.ServeHTTP(ww, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func authFailed(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(message))
}
