package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const humanDateLayout = "2006-01-02T15:04:05.000"

var (
	indexTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/index.html"))
	infoTmpl  = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/info.html"))
)

type indexView struct {
	User          *domain.User
	Links         []domain.LinkWithHits
	Messages      []string
	BaseURL       string
	GoogleEnabled bool
}

type infoView struct {
	Link    *domain.Link
	Hits    []hitView
	BaseURL string
}

type hitView struct {
	domain.Hit
	HumanDate  string
	HumanAgent string
}

func newHitViews(hits []domain.Hit) []hitView {
	out := make([]hitView, 0, len(hits))
	for _, h := range hits {
		out = append(out, hitView{
			Hit:        h,
			HumanDate:  h.When().Format(humanDateLayout),
			HumanAgent: humanAgent(h.UserAgent),
		})
	}
	return out
}

// humanAgent renders a user agent as "Browser version / OS".
func humanAgent(raw *string) string {
	if raw == nil || *raw == "" {
		return "unknown"
	}
	ua := useragent.New(*raw)
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}

	browser := name
	if version != "" {
		browser += " " + version
	}
	if os := ua.OS(); os != "" {
		return browser + " / " + os
	}
	return browser
}

// render executes into a buffer first so a template failure still yields a
// clean 500 instead of a half-written page.
func render(w http.ResponseWriter, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
