package works

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
	"github.com/2beens/portfolio/pkg"
)

const notFoundDetail = "Work not found"

type worksRepo interface {
	List(ctx context.Context, tag string) ([]*Work, error)
	GetBySlug(ctx context.Context, slug string) (*Work, error)
	GetByID(ctx context.Context, id string) (*Work, error)
	Create(ctx context.Context, c WorkCreate) (*Work, error)
	Update(ctx context.Context, id string, u WorkUpdate) (*Work, error)
	Delete(ctx context.Context, id string) error
}

type urlResolver interface {
	ResolveReadURL(ctx context.Context, key string, ttl time.Duration) string
}

type Handler struct {
	repo     worksRepo
	resolver urlResolver
	mediaTTL time.Duration
}

func NewHandler(repo worksRepo, resolver urlResolver, mediaTTL time.Duration) *Handler {
	return &Handler{
		repo:     repo,
		resolver: resolver,
		mediaTTL: mediaTTL,
	}
}

// SetupPublicRoutes registers the read only API on a /api/works subrouter.
func (h *Handler) SetupPublicRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	limit := middleware.RateLimit(rateLimiter, "public-works", allowedPerMin, metricsManager)
	router.Handle("", limit(http.HandlerFunc(h.HandleList))).Methods("GET").Name("list-works")
	router.Handle("/{slug}", limit(http.HandlerFunc(h.HandleGet))).Methods("GET").Name("get-work")
}

// SetupAdminRoutes registers the CRUD API on the protected /api/admin subrouter.
func (h *Handler) SetupAdminRoutes(router *mux.Router) {
	router.HandleFunc("/works", h.HandleAdminList).Methods("GET").Name("admin-list-works")
	router.HandleFunc("/works", h.HandleAdminCreate).Methods("POST").Name("admin-create-work")
	router.HandleFunc("/works/{id}", h.HandleAdminGet).Methods("GET").Name("admin-get-work")
	router.HandleFunc("/works/{id}", h.HandleAdminUpdate).Methods("PATCH").Name("admin-update-work")
	router.HandleFunc("/works/{id}", h.HandleAdminDelete).Methods("DELETE").Name("admin-delete-work")
}

// ResolveMedia swaps the stored media keys of w for readable urls.
func (h *Handler) ResolveMedia(ctx context.Context, w *Work) {
	w.CoverURL = h.resolver.ResolveReadURL(ctx, w.CoverURL, h.mediaTTL)
	gallery := make([]string, len(w.GalleryURLs))
	for i, key := range w.GalleryURLs {
		gallery[i] = h.resolver.ResolveReadURL(ctx, key, h.mediaTTL)
	}
	w.GalleryURLs = gallery
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		log.Errorf("list works: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	items := make([]ListItem, 0, len(list))
	for _, work := range list {
		work.CoverURL = h.resolver.ResolveReadURL(r.Context(), work.CoverURL, h.mediaTTL)
		items = append(items, work.ListItem())
	}

	pkg.WriteJSON(w, items, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	work, err := h.repo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeRepoError(w, "get work", err)
		return
	}

	h.ResolveMedia(r.Context(), work)
	pkg.WriteJSON(w, work, http.StatusOK)
}

func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context(), "")
	if err != nil {
		log.Errorf("admin list works: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) HandleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var req WorkCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("create work, unmarshal json: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Normalize(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	work, err := h.repo.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrSlugExists) {
			pkg.WriteJSONError(w, "Slug already exists", http.StatusConflict)
			return
		}
		log.Errorf("create work [%s]: %s", req.Slug, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("work [%s] created: %s", work.Slug, work.ID)
	pkg.WriteJSON(w, work, http.StatusCreated)
}

func (h *Handler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	work, err := h.repo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeRepoError(w, "admin get work", err)
		return
	}
	pkg.WriteJSON(w, work, http.StatusOK)
}

func (h *Handler) HandleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req WorkUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("update work, unmarshal json: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	work, err := h.repo.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeRepoError(w, "update work", err)
		return
	}
	pkg.WriteJSON(w, work, http.StatusOK)
}

func (h *Handler) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, "delete work", err)
		return
	}

	log.Debugf("work %s deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func writeRepoError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrWorkNotFound) {
		pkg.WriteJSONError(w, notFoundDetail, http.StatusNotFound)
		return
	}
	log.Errorf("%s: %s", op, err)
	pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
}
