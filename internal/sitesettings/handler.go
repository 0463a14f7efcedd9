package sitesettings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/pkg"
)

type settingsRepo interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, u Update) (*Settings, error)
}

type Handler struct {
	repo settingsRepo
}

func NewHandler(repo settingsRepo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/settings", h.HandleGet).Methods("GET").Name("admin-get-settings")
	router.HandleFunc("/settings", h.HandleUpdate).Methods("PATCH").Name("admin-update-settings")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.Get(r.Context())
	if err != nil {
		log.Errorf("get site settings: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, settings, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req Update
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("update site settings, unmarshal json: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, ErrInvalidSocialLink) {
			pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.repo.Update(r.Context(), req)
	if err != nil {
		log.Errorf("update site settings: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debug("site settings updated")
	pkg.WriteJSON(w, settings, http.StatusOK)
}
