package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkpad-app/inkpad/internal/auth"
	"github.com/inkpad-app/inkpad/internal/notes"
	"github.com/inkpad-app/inkpad/internal/observability"
	"github.com/inkpad-app/inkpad/internal/platform/httpx"
	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
	"github.com/inkpad-app/inkpad/internal/view"
	"github.com/inkpad-app/inkpad/jobs"
	"github.com/inkpad-app/inkpad/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	CSRFManager    *shared.CSRFManager
	SessionFlow    *auth.Flow
	Users          *auth.Service
	AuthHandler    *auth.Handler
	NotesHandler   *notes.Handler
	SessionHandler *session.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

type homePageData struct {
	UserEmail string
}

// NewRouter constructs the chi.Router with Inkpad defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		SessionFlow: params.SessionFlow,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		data := homePageData{}
		if sess.CanAuthenticate(params.SessionFlow.Now()) {
			if user, err := params.Users.GetByID(r.Context(), *sess.UserID); err == nil {
				data.UserEmail = user.Email
			}
		}
		viewData := view.TemplateData{
			Title:       "Home",
			CSRFToken:   params.CSRFManager.IssueToken(sess.SessionID()),
			Locale:      sess.Locale(),
			Theme:       sess.Theme(),
			CurrentPath: r.URL.Path,
			Data:        data,
		}
		if err := params.Templates.Render(w, "pages/home.html", viewData); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	params.AuthHandler.MountRoutes(r)
	params.SessionHandler.MountRoutes(r)

	r.Route("/notes", func(r chi.Router) {
		r.Use(params.SessionFlow.RequireUser)
		params.NotesHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
