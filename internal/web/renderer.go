package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/internal/auth"
	"github.com/2beens/portfolio/internal/sitesettings"
	"github.com/2beens/portfolio/internal/telemetry/tracing"
	"github.com/2beens/portfolio/internal/works"
	"github.com/2beens/portfolio/pkg"
)

//go:embed templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	PageIndex      = "public/index.html"
	PageWorkDetail = "public/work_detail.html"
	PageNotFound   = "public/404.html"

	PageLogin     = "admin/login.html"
	PageDashboard = "admin/dashboard.html"
	PageWorkForm  = "admin/work_form.html"
	PageSettings  = "admin/settings.html"
)

var pageNames = []string{
	PageIndex, PageWorkDetail, PageNotFound,
	PageLogin, PageDashboard, PageWorkForm, PageSettings,
}

type urlResolver interface {
	ResolveReadURL(ctx context.Context, key string, ttl time.Duration) string
}

// PageData is what every template gets. Fields a page does not use stay zero.
type PageData struct {
	Title string
	Site  *sitesettings.Settings
	Admin *auth.Admin
	Works []*works.Work
	Work  *works.Work
	Error string

	CDNBaseURL string
}

// Renderer executes the embedded page templates. Each page is parsed
// together with the base layout.
type Renderer struct {
	pages    map[string]*template.Template
	resolver urlResolver
	mediaTTL time.Duration
}

func NewRenderer(resolver urlResolver, mediaTTL time.Duration) (*Renderer, error) {
	funcs := template.FuncMap{
		// replaced per request, see Render
		"mediaURL": func(key string) string { return key },
		"join":     strings.Join,
		"year": func(y *int) string {
			if y == nil {
				return ""
			}
			return fmt.Sprint(*y)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tpl
	}

	return &Renderer{
		pages:    pages,
		resolver: resolver,
		mediaTTL: mediaTTL,
	}, nil
}

// Render writes the named page with status. The page is rendered into a
// buffer first, so a template failure still yields a clean 500.
func (r *Renderer) Render(ctx context.Context, w http.ResponseWriter, status int, name string, data *PageData) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "renderer.render")
	defer span.End()

	page, ok := r.pages[name]
	if !ok {
		log.Errorf("render: unknown page [%s]", name)
		pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
		return
	}

	tpl, err := page.Clone()
	if err != nil {
		log.Errorf("render [%s]: clone: %s", name, err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
		return
	}
	tpl.Funcs(template.FuncMap{
		"mediaURL": func(key string) string {
			return r.resolver.ResolveReadURL(ctx, key, r.mediaTTL)
		},
	})

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", data); err != nil {
		span.RecordError(err)
		log.Errorf("render [%s]: %s", name, err)
		pkg.WriteResponse(w, pkg.ContentType.Text, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.HTML, buf.Bytes(), status)
}

// NotFound renders the html 404 page.
func (r *Renderer) NotFound(w http.ResponseWriter, req *http.Request) {
	r.Render(req.Context(), w, http.StatusNotFound, PageNotFound, &PageData{Title: "Not found"})
}

// StaticHandler serves the embedded assets, mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embed pattern guarantees the directory
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
