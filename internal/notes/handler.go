package notes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/inkpad-app/inkpad/internal/rbac"
	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
	"github.com/inkpad-app/inkpad/internal/view"
)

// Handler wires HTTP endpoints for the notes feature. Routes are mounted
// behind the authentication middleware, so a valid user session is a given.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	permissions *rbac.Service
	guard       rbac.Middleware
	templates   *view.Engine
	csrf        *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, permissions *rbac.Service, guard rbac.Middleware, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		permissions: permissions,
		guard:       guard,
		templates:   templates,
		csrf:        csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers note routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Get("/new", h.showNew)
	r.Post("/new", h.handleCreate)
	r.Get("/{noteID}", h.showDetail)
	r.With(h.guard.Require(rbac.PermissionDeleteNotes)).Post("/{noteID}", h.handleDelete)
}

type listPageData struct {
	Notes     []ListItem
	UserEmail string
}

type newPageData struct {
	Title  string
	Body   string
	Errors map[string]string
}

type detailPageData struct {
	Note      *Note
	CanDelete bool
}

type noteForm struct {
	Title string `validate:"required,max=200"`
	Body  string
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	items, err := h.service.ListForUser(r.Context(), *sess.UserID)
	if err != nil {
		h.logger.Error("list notes", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	userEmail := ""
	if user, err := h.permissions.GetUserPermissions(r.Context(), *sess.UserID); err == nil {
		userEmail = user.Email
	}
	h.render(w, r, "pages/notes.html", "Notes", http.StatusOK, listPageData{Notes: items, UserEmail: userEmail})
}

func (h *Handler) showNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/note_new.html", "New note", http.StatusOK, newPageData{})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := session.FromContext(r.Context())
	form := noteForm{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}
	if err := h.validator.Struct(form); err != nil {
		data := newPageData{
			Title:  form.Title,
			Body:   form.Body,
			Errors: map[string]string{"title": "Title is required"},
		}
		h.render(w, r, "pages/note_new.html", "New note", http.StatusBadRequest, data)
		return
	}

	note, err := h.service.Create(r.Context(), *sess.UserID, form.Title, form.Body)
	if err != nil {
		h.logger.Error("create note", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/notes/"+note.ID, http.StatusSeeOther)
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	noteID := chi.URLParam(r, "noteID")

	// Note body and permission check are independent lookups.
	var note *Note
	var canDelete bool
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		note, err = h.service.GetForUser(ctx, noteID, *sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		canDelete, err = h.permissions.HasPermission(ctx, *sess.UserID, rbac.PermissionDeleteNotes)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load note detail", slog.String("note_id", noteID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/note_detail.html", note.Title, http.StatusOK, detailPageData{Note: note, CanDelete: canDelete})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	noteID := chi.URLParam(r, "noteID")
	if err := h.service.DeleteForUser(r.Context(), noteID, *sess.UserID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete note", slog.String("note_id", noteID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/notes", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, status int, data any) {
	sess := session.FromContext(r.Context())
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   h.csrf.IssueToken(sess.SessionID()),
		Locale:      sess.Locale(),
		Theme:       sess.Theme(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, page, viewData); err != nil {
		h.logger.Error("render notes page", slog.String("page", page), slog.Any("error", err))
	}
}
