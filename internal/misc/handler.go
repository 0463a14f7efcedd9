package misc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/pkg"
)

const pingTimeout = 3 * time.Second

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type healthResponse struct {
	Status    string `json:"status"`
	Component string `json:"component,omitempty"`
}

type Handler struct {
	db    dbPinger
	redis redisPinger
}

func NewHandler(db dbPinger, redisClient redisPinger) *Handler {
	return &Handler{
		db:    db,
		redis: redisClient,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.HandleHealth).Methods("GET").Name("healthz")
}

// componentError names the dependency that failed its ping.
type componentError struct {
	component string
	err       error
}

func (e *componentError) Error() string {
	return fmt.Sprintf("%s: %s", e.component, e.err)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.db.Ping(gCtx); err != nil {
			return &componentError{component: "database", err: err}
		}
		return nil
	})
	g.Go(func() error {
		if err := h.redis.Ping(gCtx).Err(); err != nil {
			return &componentError{component: "redis", err: err}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf("health check: %s", err)
		resp := healthResponse{Status: "unavailable"}
		var ce *componentError
		if errors.As(err, &ce) {
			resp.Component = ce.component
		}
		pkg.WriteJSON(w, resp, http.StatusServiceUnavailable)
		return
	}

	pkg.WriteJSON(w, healthResponse{Status: "ok"}, http.StatusOK)
}
