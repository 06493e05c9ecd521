// Package web serves a minimal HTML rendering of a site's menu.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"golunch/internal/lunch"
)

const readTimeout = 3 * time.Second

// defaultSitePath is where the bare root redirects.
const defaultSitePath = "/se/gbg/lh"

// Server renders menu pages straight from the store.
type Server struct {
	router chi.Router
	store  lunch.Store
	tmpl   *template.Template
	gtag   string
	logger *zap.Logger
}

// NewServer constructs the HTML server. gtag, when non-empty, enables the
// analytics snippet in the page head.
func NewServer(store lunch.Store, gtag string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		tmpl:   template.Must(template.New("menu").Parse(menuTemplate)),
		gtag:   gtag,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, defaultSitePath, http.StatusFound)
	})
	r.Get("/{country}/{city}/{site}", s.siteMenu)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type menuPage struct {
	GTag string
	Site *lunch.Site
}

func (s *Server) siteMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	key := lunch.SiteKey{
		Country: chi.URLParam(r, "country"),
		City:    chi.URLParam(r, "city"),
		Site:    chi.URLParam(r, "site"),
	}
	rel, err := s.store.SiteRelation(ctx, key)
	if err != nil {
		if errors.Is(err, lunch.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("resolve site failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	site, err := s.store.SiteMenu(ctx, rel.SiteID)
	if err != nil {
		s.logger.Error("load site menu failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, menuPage{GTag: s.gtag, Site: site}); err != nil {
		s.logger.Error("render menu failed", zap.Error(err))
	}
}

const menuTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Site.Name}} lunch</title>
{{if .GTag}}<script async src="https://www.googletagmanager.com/gtag/js?id={{.GTag}}"></script>
<script>
window.dataLayer = window.dataLayer || [];
function gtag(){dataLayer.push(arguments);}
gtag('js', new Date());
gtag('config', '{{.GTag}}');
</script>{{end}}
</head>
<body>
<h1>{{.Site.Name}}</h1>
{{range .Site.Restaurants}}
<section>
<h2>{{if .URL}}<a href="{{.URL}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</h2>
{{if .Address}}<p>{{if .MapURL}}<a href="{{.MapURL}}">{{.Address}}</a>{{else}}{{.Address}}{{end}}</p>{{end}}
<ul>
{{range .Dishes}}
<li><strong>{{.Name}}</strong>{{if .Description}} {{.Description}}{{end}}{{if .Price}} &mdash; {{printf "%.0f" .Price}}{{end}}</li>
{{end}}
</ul>
</section>
{{end}}
</body>
</html>
`
