package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/sitesettings"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/web"
	"github.com/2beens/portfolio/internal/works"
)

type loginService interface {
	Login(ctx context.Context, email, password string) (string, *auth.Admin, error)
}

type worksReader interface {
	List(ctx context.Context, tag string) ([]*works.Work, error)
	GetByID(ctx context.Context, id string) (*works.Work, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*sitesettings.Settings, error)
}

type NewHandlerParams struct {
	LoginService   loginService
	Works          worksReader
	Settings       settingsReader
	Renderer       *web.Renderer
	MetricsManager *metrics.Manager
	SessionMaxAge  time.Duration
	SecureCookies  bool
	CDNBaseURL     string
}

// Handler serves the admin pages under /admin.
type Handler struct {
	loginService   loginService
	works          worksReader
	settings       settingsReader
	renderer       *web.Renderer
	metricsManager *metrics.Manager
	sessionMaxAge  time.Duration
	secureCookies  bool
	cdnBaseURL     string
}

func NewHandler(params NewHandlerParams) *Handler {
	return &Handler{
		loginService:   params.LoginService,
		works:          params.Works,
		settings:       params.Settings,
		renderer:       params.Renderer,
		metricsManager: params.MetricsManager,
		sessionMaxAge:  params.SessionMaxAge,
		secureCookies:  params.SecureCookies,
		cdnBaseURL:     params.CDNBaseURL,
	}
}

// SetupAuthRoutes registers login and logout, which stay reachable without a session.
func (h *Handler) SetupAuthRoutes(router *mux.Router, rateLimiter middleware.RequestRateLimiter, allowedPerMin int) {
	limit := middleware.RateLimit(rateLimiter, "login", allowedPerMin, h.metricsManager)
	router.HandleFunc("/login", h.HandleLoginPage).Methods("GET").Name("admin-login-page")
	router.Handle("/login", limit(http.HandlerFunc(h.HandleLoginSubmit))).Methods("POST").Name("admin-login")
	router.HandleFunc("/logout", h.HandleLogout).Methods("GET").Name("admin-logout")
}

// SetupPageRoutes registers the pages; router must already require a session.
func (h *Handler) SetupPageRoutes(router *mux.Router) {
	router.HandleFunc("/", h.HandleDashboard).Methods("GET").Name("admin-dashboard")
	router.HandleFunc("/works/new", h.HandleNewWork).Methods("GET").Name("admin-new-work")
	router.HandleFunc("/works/{id}/edit", h.HandleEditWork).Methods("GET").Name("admin-edit-work")
	router.HandleFunc("/settings", h.HandleSettings).Methods("GET").Name("admin-settings")
}
