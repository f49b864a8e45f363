package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/inkpad-app/inkpad/internal/shared"
)

// Handler exposes the preferences endpoint updating locale and theme.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	cookies   *CookieCodec
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cookies *CookieCodec) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		cookies:   cookies,
		validator: validator.New(),
	}
}

// MountRoutes registers session data routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/session-data", h.handleUpdate)
}

type preferencesForm struct {
	Locale string `validate:"required"`
	Theme  string `validate:"required"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := preferencesForm{
		Locale: r.PostFormValue("locale"),
		Theme:  r.PostFormValue("theme"),
	}
	if err := h.validator.Struct(form); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	claims, err := h.cookies.Read(r)
	if err != nil {
		// No usable cookie means nothing to attach the preferences to.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Best effort: the browser may hold a cookie for a session that was
	// deleted server-side.
	if err := h.service.UpdateData(r.Context(), claims.SessionID, form.Locale, form.Theme); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("session data update for unknown session", slog.String("session_id", claims.SessionID))
		} else {
			h.logger.Error("session data update", slog.Any("error", err))
		}
	}

	// The cookie mirrors the locale for client-side rendering. When the row
	// is gone the mirror still updates, so the two can drift.
	claims.Locale = form.Locale
	h.cookies.Write(w, claims, 0)
	w.WriteHeader(http.StatusNoContent)
}
