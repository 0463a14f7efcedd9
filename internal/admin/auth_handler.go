package admin

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/web"
	"github.com/2beens/portfolio/pkg"
)

const invalidLoginMessage = "Invalid email or password"

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(r.Context(), w, http.StatusOK, web.PageLogin, &web.PageData{})
}

// HandleLoginSubmit answers every failed login with the same page, so the
// response never tells which part of the credentials was wrong.
func (h *Handler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Debugf("login: parse form: %s", err)
		h.loginFailed(w, r)
		return
	}

	token, admin, err := h.loginService.Login(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.loginFailed(w, r)
			return
		}
		log.Errorf("login: %s", err)
		h.countLogin("error")
		pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
		return
	}

	h.countLogin("success")
	log.Infof("admin [%d] logged in", admin.ID)

	http.SetCookie(w, auth.NewSessionCookie(token, h.sessionMaxAge, h.secureCookies))
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// HandleLogout drops the cookie. It works the same with or without a session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ExpiredSessionCookie(h.secureCookies))
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request) {
	h.countLogin("failure")
	h.renderer.Render(r.Context(), w, http.StatusBadRequest, web.PageLogin, &web.PageData{Error: invalidLoginMessage})
}

func (h *Handler) countLogin(result string) {
	if h.metricsManager != nil {
		h.metricsManager.CounterLoginAttempts.WithLabelValues(result).Inc()
	}
}
