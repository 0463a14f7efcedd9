package pages

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/sitesettings"
	"github.com/2beens/portfolio/internal/web"
	"github.com/2beens/portfolio/internal/works"
	"github.com/2beens/portfolio/pkg"
)

type worksReader interface {
	List(ctx context.Context, tag string) ([]*works.Work, error)
	GetBySlug(ctx context.Context, slug string) (*works.Work, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*sitesettings.Settings, error)
}

// Handler serves the public portfolio pages.
type Handler struct {
	works    worksReader
	settings settingsReader
	renderer *web.Renderer
}

func NewHandler(works worksReader, settings settingsReader, renderer *web.Renderer) *Handler {
	return &Handler{
		works:    works,
		settings: settings,
		renderer: renderer,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/", h.HandleIndex).Methods("GET").Name("index")
	router.HandleFunc("/work/{slug}", h.HandleWork).Methods("GET").Name("work-detail")
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	list, err := h.works.List(r.Context(), "")
	if err != nil {
		internalError(w, "index: list works", err)
		return
	}
	site, err := h.settings.Get(r.Context())
	if err != nil {
		internalError(w, "index: get settings", err)
		return
	}

	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageIndex, &web.PageData{
		Site:  site,
		Works: list,
	})
}

func (h *Handler) HandleWork(w http.ResponseWriter, r *http.Request) {
	work, err := h.works.GetBySlug(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, works.ErrWorkNotFound) {
		h.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, "work page: get work", err)
		return
	}
	site, err := h.settings.Get(r.Context())
	if err != nil {
		internalError(w, "work page: get settings", err)
		return
	}

	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageWorkDetail, &web.PageData{
		Site: site,
		Work: work,
	})
}

func internalError(w http.ResponseWriter, op string, err error) {
	log.Errorf("%s: %s", op, err)
	pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
}
