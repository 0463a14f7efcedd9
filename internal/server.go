package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/portfolio/internal/admin"
	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/config"
	"github.com/2beens/portfolio/internal/db"
	"github.com/2beens/portfolio/internal/media"
	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/misc"
	"github.com/2beens/portfolio/internal/pages"
	"github.com/2beens/portfolio/internal/sitesettings"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/internal/web"
	"github.com/2beens/portfolio/internal/works"
	"github.com/2beens/portfolio/pkg"
)

type worksRepo interface {
	List(ctx context.Context, tag string) ([]*works.Work, error)
	GetBySlug(ctx context.Context, slug string) (*works.Work, error)
	GetByID(ctx context.Context, id string) (*works.Work, error)
	Create(ctx context.Context, c works.WorkCreate) (*works.Work, error)
	Update(ctx context.Context, id string, u works.WorkUpdate) (*works.Work, error)
	Delete(ctx context.Context, id string) error
}

type settingsRepo interface {
	Get(ctx context.Context) (*sitesettings.Settings, error)
	Update(ctx context.Context, u sitesettings.Update) (*sitesettings.Settings, error)
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	mediaStore  *media.Store

	authService   *auth.Service
	authenticator *auth.Authenticator

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "portfolio-backend")
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DatabaseURL:    cfg.DatabaseURL,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}
	if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "portfolio_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "portfolio", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}
	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	s3Client, err := media.NewS3Client(ctx, media.S3ClientParams{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new s3 client: %w", err)
	}
	mediaStore := media.NewStore(s3Client, s3.NewPresignClient(s3Client), media.StoreParams{
		Bucket:     cfg.S3Bucket,
		CDNBaseURL: cfg.CDNBaseURL,
		Metrics:    metricsManager,
	})

	codec, err := auth.NewTokenCodec(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("new token codec: %w", err)
	}
	adminRepo := auth.NewRepo(dbPool)
	authService, err := auth.NewService(adminRepo, codec)
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("ensure admin: %w", err)
		}
	} else {
		log.Warnln("ADMIN_EMAIL / ADMIN_PASSWORD not set, no admin ensured")
	}

	return &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,
		mediaStore:  mediaStore,

		authService:   authService,
		authenticator: auth.NewAuthenticator(codec, adminRepo, cfg.SessionMaxAge()),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

type routerParams struct {
	config         *config.Config
	metricsManager *metrics.Manager
	rateLimiter    middleware.RequestRateLimiter
	authenticator  *auth.Authenticator
	authService    *auth.Service
	worksRepo      worksRepo
	settingsRepo   settingsRepo
	mediaStore     *media.Store
	healthHandler  *misc.Handler
}

func (s *Server) routerSetup() (*mux.Router, error) {
	return newRouter(routerParams{
		config:         s.config,
		metricsManager: s.metricsManager,
		rateLimiter:    redis_rate.NewLimiter(s.redisClient),
		authenticator:  s.authenticator,
		authService:    s.authService,
		worksRepo:      works.NewRepo(s.dbPool),
		settingsRepo:   sitesettings.NewRepo(s.dbPool),
		mediaStore:     s.mediaStore,
		healthHandler:  misc.NewHandler(s.dbPool, s.redisClient),
	})
}

func newRouter(p routerParams) (*mux.Router, error) {
	cfg := p.config

	renderer, err := web.NewRenderer(p.mediaStore, cfg.MediaURLTTL())
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}
	sessionAuth := middleware.NewSessionAuth(p.authenticator, p.metricsManager)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("portfolio-router"))

	r.PathPrefix("/static/").Handler(web.StaticHandler()).Methods("GET", "HEAD").Name("static")
	p.healthHandler.SetupRoutes(r)

	worksHandler := works.NewHandler(p.worksRepo, p.mediaStore, cfg.MediaURLTTL())
	worksHandler.SetupPublicRoutes(
		r.PathPrefix("/api/works").Subrouter(),
		p.rateLimiter,
		cfg.PublicAPIRateLimitAllowedPerMin,
		p.metricsManager,
	)

	apiAdminRouter := r.PathPrefix("/api/admin").Subrouter()
	apiAdminRouter.Use(sessionAuth.RequireAdminAPI())
	worksHandler.SetupAdminRoutes(apiAdminRouter)
	sitesettings.NewHandler(p.settingsRepo).SetupRoutes(apiAdminRouter)
	media.NewHandler(p.mediaStore).SetupRoutes(
		apiAdminRouter,
		p.rateLimiter,
		cfg.UploadRateLimitAllowedPerMin,
		p.metricsManager,
	)
	// any other path under the prefix, /api/admin itself included, answers
	// only after the session check
	apiAdminRouter.NewRoute().HandlerFunc(apiNotFound).Name("admin-api-unknown")

	adminHandler := admin.NewHandler(admin.NewHandlerParams{
		LoginService:   p.authService,
		Works:          p.worksRepo,
		Settings:       p.settingsRepo,
		Renderer:       renderer,
		MetricsManager: p.metricsManager,
		SessionMaxAge:  cfg.SessionMaxAge(),
		SecureCookies:  cfg.SecureCookies,
		CDNBaseURL:     cfg.CDNBaseURL,
	})
	r.Handle("/admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently)).Name("admin-root")
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminHandler.SetupAuthRoutes(adminRouter, p.rateLimiter, cfg.LoginRateLimitAllowedPerMin)
	adminPagesRouter := adminRouter.NewRoute().Subrouter()
	adminPagesRouter.Use(sessionAuth.RequireAdminPage())
	adminHandler.SetupPageRoutes(adminPagesRouter)
	adminPagesRouter.PathPrefix("/").HandlerFunc(renderer.NotFound).Name("admin-unknown")

	pages.NewHandler(p.worksRepo, p.settingsRepo, renderer).SetupRoutes(r)

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if isAPIPath(req.URL.Path) {
			apiNotFound(w, req)
			return
		}
		renderer.NotFound(w, req)
	}).Name("unknown")

	r.Use(middleware.PanicRecovery(p.metricsManager))
	r.Use(middleware.ClientIP(cfg.TrustProxyHeaders))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(p.metricsManager))
	r.Use(middleware.Cors(cfg.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func apiNotFound(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONError(w, "not found", http.StatusNotFound)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s], version: [%s]", ipAndPort, s.versionInfo)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
