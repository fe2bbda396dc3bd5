// Package api exposes the campus content service over HTTP. Reads are
// public; writes require a bearer JWT whose sub, name and email claims
// identify the caller.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

const defaultMaxUploadBytes = 20 << 20

// Handler handles HTTP requests for campus content
type Handler struct {
	service   campuscontent.Service
	auth      *jwtauth.JWTAuth
	logger    *slog.Logger
	maxUpload int64
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxUploadBytes limits the size of multipart create requests
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		h.maxUpload = n
	}
}

// NewHandler creates a new handler. auth verifies bearer tokens on writes.
func NewHandler(service campuscontent.Service, auth *jwtauth.JWTAuth, opts ...Option) *Handler {
	h := &Handler{
		service:   service,
		auth:      auth,
		logger:    slog.Default(),
		maxUpload: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewAuth creates an HS256 token verifier for secret.
func NewAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Routes returns the routes for every content type
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(h.auth))

	// Public reads and best-effort engagement counters
	r.Get("/notes", h.ListNotes)
	r.Post("/notes/{id}/download", h.RecordNoteDownload)
	r.Get("/listings", h.ListListings)
	r.Post("/listings/{id}/view", h.RecordListingView)
	r.Get("/events", h.ListEvents)
	r.Post("/events/{id}/register", h.RecordEventRegistration)
	r.Get("/questions", h.ListQuestions)
	r.Get("/questions/{id}/answers", h.ListAnswers)
	r.Get("/projects", h.ListProjects)
	r.Get("/assets/*", h.GetAsset)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator)

		r.Post("/notes", h.CreateNote)
		r.Delete("/notes/{id}", h.deleteHandler(campuscontent.KindNote))

		r.Post("/listings", h.CreateListing)
		r.Patch("/listings/{id}/status", h.UpdateListingStatus)
		r.Delete("/listings/{id}", h.deleteHandler(campuscontent.KindListing))

		r.Post("/events", h.CreateEvent)
		r.Delete("/events/{id}", h.deleteHandler(campuscontent.KindEvent))

		r.Post("/questions", h.CreateQuestion)
		r.Post("/questions/{id}/upvote", h.UpvoteQuestion)
		r.Post("/questions/{id}/answers", h.CreateAnswer)
		r.Post("/questions/{id}/answers/{aid}/upvote", h.UpvoteAnswer)
		r.Delete("/questions/{id}", h.deleteHandler(campuscontent.KindQuestion))

		r.Post("/projects", h.CreateProject)
		r.Patch("/projects/{id}/status", h.UpdateProjectStatus)
		r.Get("/projects/{id}/applications", h.ListApplications)
		r.Post("/projects/{id}/applications", h.ApplyToProject)
		r.Patch("/projects/{id}/applications/{aid}/status", h.UpdateApplicationStatus)
		r.Delete("/projects/{id}", h.deleteHandler(campuscontent.KindProject))
	})

	return r
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// CreatedResponse is returned by every create endpoint
type CreatedResponse struct {
	ID string `json:"id"`
}

// OutcomeResponse reports whether a best-effort counter was recorded
type OutcomeResponse struct {
	Recorded bool `json:"recorded"`
}

// StatusRequest is the body of every status update
type StatusRequest struct {
	Status string `json:"status"`
}

// identity reads the caller from the verified token claims.
func identity(r *http.Request) campuscontent.Identity {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return campuscontent.Identity{}
	}
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	return campuscontent.Identity{
		ID:          str("sub"),
		DisplayName: str("name"),
		Email:       str("email"),
	}
}

// writeError maps service errors to HTTP status codes. Unclassified faults
// are logged and reported with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *campuscontent.ValidationError
	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: verr.Error(), Field: verr.Field})
		return
	case errors.Is(err, campuscontent.ErrUnauthenticated):
		render.Status(r, http.StatusUnauthorized)
	case errors.Is(err, campuscontent.ErrAccessDenied):
		render.Status(r, http.StatusForbidden)
	case errors.Is(err, campuscontent.ErrNotFound):
		render.Status(r, http.StatusNotFound)
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "internal server error"})
		return
	}
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func (h *Handler) created(w http.ResponseWriter, r *http.Request, id string, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreatedResponse{ID: id})
}

func (h *Handler) outcome(w http.ResponseWriter, r *http.Request, o campuscontent.Outcome) {
	render.JSON(w, r, OutcomeResponse{Recorded: o.OK()})
}

// list renders items as a JSON array, never null.
func list[T any](h *Handler, w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	render.JSON(w, r, items)
}

func (h *Handler) decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req StatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.badRequest(w, r, "invalid request body")
		return "", false
	}
	return req.Status, true
}

func (h *Handler) deleteHandler(kind campuscontent.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := h.service.Delete(r.Context(), identity(r), kind, id); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.logger.Info("Content deleted", "kind", kind, "id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetAsset streams a published asset. It backs the app-routed URL strategy.
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		h.badRequest(w, r, "invalid asset key")
		return
	}

	asset, err := h.service.Asset(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer asset.Body.Close()

	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	if _, err := io.Copy(w, asset.Body); err != nil {
		h.logger.Warn("Asset stream interrupted", "key", key, "error", err)
	}
}
