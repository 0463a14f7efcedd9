package admin

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/web"
	"github.com/2beens/portfolio/internal/works"
	"github.com/2beens/portfolio/pkg"
)

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.works.List(r.Context(), "")
	if err != nil {
		internalError(w, "dashboard: list works", err)
		return
	}

	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageDashboard, h.pageData(r, &web.PageData{
		Title: "Works",
		Works: list,
	}))
}

func (h *Handler) HandleNewWork(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageWorkForm, h.pageData(r, &web.PageData{
		Title: "New work",
	}))
}

func (h *Handler) HandleEditWork(w http.ResponseWriter, r *http.Request) {
	work, err := h.works.GetByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, works.ErrWorkNotFound) {
		h.renderer.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, "edit work page", err)
		return
	}

	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageWorkForm, h.pageData(r, &web.PageData{
		Title: "Edit work",
		Work:  work,
	}))
}

func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	site, err := h.settings.Get(r.Context())
	if err != nil {
		internalError(w, "settings page", err)
		return
	}

	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageSettings, h.pageData(r, &web.PageData{
		Title: "Settings",
		Site:  site,
	}))
}

func (h *Handler) pageData(r *http.Request, data *web.PageData) *web.PageData {
	data.Admin, _ = auth.AdminFromContext(r.Context())
	data.CDNBaseURL = h.cdnBaseURL
	return data
}

func internalError(w http.ResponseWriter, op string, err error) {
	log.Errorf("%s: %s", op, err)
	pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
}
