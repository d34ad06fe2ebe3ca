package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
	"github.com/wadjakorntonsri/shorts/pkg/validation"
)

type HTTPHandler struct {
	links         ports.LinkService
	baseURL       string
	googleEnabled bool
}

func NewHTTPHandler(links ports.LinkService, baseURL string, googleEnabled bool) *HTTPHandler {
	return &HTTPHandler{links: links, baseURL: baseURL, googleEnabled: googleEnabled}
}

// linkForm is the body of POST /submit
type linkForm struct {
	Short string `form:"short" validate:"notblank,shortcode,max=64"`
	URL   string `form:"url" validate:"notblank,http_url"`
}

// Index renders every link by popularity plus any pending notices.
func (h *HTTPHandler) Index(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.ListLinksByPopularity(r.Context())
	if err != nil {
		logger.Error("list links", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	render(w, indexTmpl, "index.html", indexView{
		User:          UserFromContext(r.Context()),
		Links:         links,
		Messages:      flash.FromContext(r.Context()).Pop(),
		BaseURL:       h.baseURL,
		GoogleEnabled: h.googleEnabled,
	})
}

// Redirect records a hit and sends the client to the original URL.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	short := r.PathValue("short")

	var userAgent *string
	if ua := r.Header.Get("User-Agent"); ua != "" {
		userAgent = &ua
	}

	link, err := h.links.GetLink(r.Context(), short)
	if err == nil {
		_, err = h.links.RecordHit(r.Context(), short, userAgent)
	}
	if err != nil {
		if domain.IsNotFound(err) {
			http.Error(w, "no link "+short, http.StatusNotFound)
			return
		}
		logger.Error("record hit", zap.String("short", short), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	shortLinkHits.Inc()

	http.Redirect(w, r, link.Original, http.StatusFound)
}

// Info renders the hit history of one link.
func (h *HTTPHandler) Info(w http.ResponseWriter, r *http.Request) {
	short := r.PathValue("short")

	link, err := h.links.GetLink(r.Context(), short)
	if err == nil {
		var hits []domain.Hit
		hits, err = h.links.ListHits(r.Context(), short)
		if err == nil {
			render(w, infoTmpl, "info.html", infoView{
				Link:    link,
				Hits:    newHitViews(hits),
				BaseURL: h.baseURL,
			})
			return
		}
	}

	if domain.IsNotFound(err) {
		flash.FromContext(r.Context()).Push(fmt.Sprintf("No such shortlink %s!", short))
	} else {
		logger.Error("link info", zap.String("short", short), zap.Error(err))
		flash.FromContext(r.Context()).Push("Something went wrong.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	short := r.PathValue("short")
	f := flash.FromContext(r.Context())

	removed, err := h.links.RemoveLink(r.Context(), short)
	switch {
	case err != nil:
		logger.Error("remove link", zap.String("short", short), zap.Error(err))
		f.Push("Something went wrong.")
	case removed:
		logger.Info("link removed", zap.String("short", short))
		f.Push(fmt.Sprintf("Deleted shortlink \"%s\" successfully.", short))
	default:
		f.Push(fmt.Sprintf("No such shortlink \"%s\"!", short))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	f := flash.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		f.Push("invalid form submission")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	form := linkForm{Short: r.PostFormValue("short"), URL: r.PostFormValue("url")}
	if err := validation.Validate(form); err != nil {
		f.Push(validation.Message(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	link, err := h.links.AddLink(r.Context(), form.Short, form.URL)
	switch {
	case domain.IsDuplicateKey(err):
		f.Push("There is already a short link with this name.")
	case err != nil:
		logger.Error("add link", zap.String("short", form.Short), zap.Error(err))
		f.Push("Something went wrong.")
	default:
		logger.Info("link created", zap.String("short", link.Short), zap.String("url", link.Original))
		f.Push("Created short link successfully.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
