package middleware

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"
)

const AdminLoginPath = "/admin/login"

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (auth.Outcome, error)
}

// SessionAuth guards admin routes. Pages and API routes share the same
// session check and differ only in how a rejection is answered.
type SessionAuth struct {
	authenticator  authenticator
	metricsManager *metrics.Manager
}

func NewSessionAuth(authenticator authenticator, metricsManager *metrics.Manager) *SessionAuth {
	return &SessionAuth{
		authenticator:  authenticator,
		metricsManager: metricsManager,
	}
}

// RequireAdminPage redirects rejected requests to the login page.
func (h *SessionAuth) RequireAdminPage() func(next http.Handler) http.Handler {
	return h.require(
		func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, AdminLoginPath, http.StatusSeeOther)
		},
		func(w http.ResponseWriter) {
			pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
		},
	)
}

// RequireAdminAPI answers rejected requests with 401.
func (h *SessionAuth) RequireAdminAPI() func(next http.Handler) http.Handler {
	return h.require(
		func(w http.ResponseWriter, _ *http.Request) {
			pkg.WriteJSONError(w, "not authorized", http.StatusUnauthorized)
		},
		func(w http.ResponseWriter) {
			pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		},
	)
}

func (h *SessionAuth) require(
	reject func(w http.ResponseWriter, r *http.Request),
	fail func(w http.ResponseWriter),
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.sessionAuth")
			defer span.End()

			outcome, err := h.authenticator.Authenticate(ctx, r)
			if err != nil {
				if ctx.Err() != nil {
					log.Debugf("[auth middleware] request gone => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "request-cancelled")
					return
				}
				log.Errorf("[auth middleware] session check failed => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Error, "session-check-failed")
				span.RecordError(err)
				fail(w)
				return
			}

			admin, ok := outcome.Admin()
			if !ok {
				reason := outcome.Reason()
				log.Tracef("[auth middleware] unauthorized [%s] => %s", reason, r.URL.Path)
				if h.metricsManager != nil {
					h.metricsManager.CounterAuthRejections.WithLabelValues(string(reason)).Inc()
				}
				span.SetAttributes(attribute.String("reason", string(reason)))
				span.SetStatus(codes.Error, "rejected")
				reject(w, r)
				return
			}

			span.SetAttributes(attribute.Int64("admin.id", admin.ID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), admin)))
		})
	}
}
