package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
	"github.com/inkpad-app/inkpad/internal/view"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgServerError        = "Sorry for the server errors, please try again later or contact us"
)

// Handler wires HTTP endpoints for login, sign-up and logout.
type Handler struct {
	logger        *slog.Logger
	service       *Service
	authenticator *Authenticator
	flow          *Flow
	templates     *view.Engine
	csrf          *shared.CSRFManager
	validator     *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authenticator *Authenticator, flow *Flow, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		authenticator: authenticator,
		flow:          flow,
		templates:     templates,
		csrf:          csrf,
		validator:     validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/sign-up", h.showSignUp)
	r.Post("/sign-up", h.handleSignUp)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8"`
	Remember   bool
	RedirectTo string
}

type signUpForm struct {
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8"`
	Confirm    string `validate:"required,eqfield=Password"`
	RedirectTo string
}

type authPageData struct {
	Email      string
	RedirectTo string
	Errors     map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).CanAuthenticate(h.flow.Now()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderAuthPage(w, r, "pages/login.html", "Login", http.StatusOK, authPageData{
		RedirectTo: shared.SafeRedirect(r.URL.Query().Get("redirectTo"), "/"),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		Remember:   r.PostFormValue("rememberMe") != "",
		RedirectTo: shared.SafeRedirect(r.PostFormValue("redirectTo"), "/"),
	}
	data := authPageData{Email: form.Email, RedirectTo: form.RedirectTo}

	data.Errors = h.validationErrors(form)
	if len(data.Errors) > 0 {
		h.renderAuthPage(w, r, "pages/login.html", "Login", http.StatusBadRequest, data)
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			data.Errors = map[string]string{"email": msgInvalidCredentials}
			h.renderAuthPage(w, r, "pages/login.html", "Login", http.StatusBadRequest, data)
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		data.Errors = map[string]string{"general": msgServerError}
		h.renderAuthPage(w, r, "pages/login.html", "Login", http.StatusInternalServerError, data)
		return
	}

	h.establishSession(w, r, user.ID, form.Remember, form.RedirectTo, "pages/login.html", "Login", data)
}

func (h *Handler) showSignUp(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).CanAuthenticate(h.flow.Now()) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderAuthPage(w, r, "pages/signup.html", "Sign up", http.StatusOK, authPageData{
		RedirectTo: shared.SafeRedirect(r.URL.Query().Get("redirectTo"), "/"),
	})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := signUpForm{
		Email:      r.PostFormValue("email"),
		Password:   r.PostFormValue("password"),
		Confirm:    r.PostFormValue("confirm-pwd"),
		RedirectTo: shared.SafeRedirect(r.PostFormValue("redirectTo"), "/"),
	}
	data := authPageData{Email: form.Email, RedirectTo: form.RedirectTo}

	data.Errors = h.validationErrors(form)
	if len(data.Errors) > 0 {
		h.renderAuthPage(w, r, "pages/signup.html", "Sign up", http.StatusBadRequest, data)
		return
	}

	user, err := h.service.Register(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			data.Errors = map[string]string{"email": "A user already exists with this email"}
			h.renderAuthPage(w, r, "pages/signup.html", "Sign up", http.StatusBadRequest, data)
			return
		}
		h.logger.Error("sign up", slog.Any("error", err))
		data.Errors = map[string]string{"general": msgServerError}
		h.renderAuthPage(w, r, "pages/signup.html", "Sign up", http.StatusInternalServerError, data)
		return
	}

	h.establishSession(w, r, user.ID, false, form.RedirectTo, "pages/signup.html", "Sign up", data)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.flow.Logout(w, r)
}

// establishSession replaces the guest session with an authenticated one and
// redirects. The guest row stays behind and is reaped by the purge job.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, userID int64, remember bool, redirectTo, page, title string, data authPageData) {
	sess := session.FromContext(r.Context())
	if _, err := h.flow.Login(w, r, userID, remember, sess.Locale(), sess.Theme()); err != nil {
		h.logger.Error("create login session", slog.Any("error", err))
		data.Errors = map[string]string{"general": msgServerError}
		h.renderAuthPage(w, r, page, title, http.StatusInternalServerError, data)
		return
	}
	http.Redirect(w, r, redirectTo, http.StatusSeeOther)
}

func (h *Handler) validationErrors(form any) map[string]string {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	fieldErrors := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrors["general"] = msgServerError
		return fieldErrors
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Email":
			fieldErrors["email"] = "Email is invalid"
		case "Password":
			if fe.Tag() == "required" {
				fieldErrors["password"] = "Password is required"
			} else {
				fieldErrors["password"] = "Password is too short"
			}
		case "Confirm":
			fieldErrors["confirmPassword"] = "The passwords entered twice are inconsistent"
		}
	}
	return fieldErrors
}

func (h *Handler) renderAuthPage(w http.ResponseWriter, r *http.Request, page, title string, status int, data authPageData) {
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
		h.logger.Error("render auth page", slog.String("page", page), slog.Any("error", err))
	}
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleSignUpForTest exposes the POST handler for tests.
func (h *Handler) HandleSignUpForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSignUp(w, r)
}
