package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/campus-content/pkg/campuscontent"
)

// CreateQuestionBody is the request body for posting a doubt
type CreateQuestionBody struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// CreateAnswerBody is the request body for answering a doubt
type CreateAnswerBody struct {
	Body string `json:"body"`
}

// CreateProjectBody is the request body for creating a project
type CreateProjectBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// ApplyBody is the request body for applying to a project
type ApplyBody struct {
	Message string `json:"message"`
	Contact string `json:"contact"`
}

// Q&A

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var body CreateQuestionBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	id, err := h.service.CreateQuestion(r.Context(), identity(r), campuscontent.CreateQuestionRequest{
		Title: body.Title,
		Body:  body.Body,
		Tags:  body.Tags,
	})
	h.created(w, r, id, err)
}

// ListQuestions lists doubts filtered by q and tag.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions, err := h.service.ListQuestions(r.Context(), campuscontent.QuestionFilter{
		Term: q.Get("q"),
		Tag:  q.Get("tag"),
		Sort: q.Get("sort"),
	})
	list(h, w, r, questions, err)
}

func (h *Handler) UpvoteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UpvoteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var body CreateAnswerBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	id, err := h.service.CreateAnswer(r.Context(), identity(r), chi.URLParam(r, "id"), campuscontent.CreateAnswerRequest{
		Body: body.Body,
	})
	h.created(w, r, id, err)
}

func (h *Handler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.service.ListAnswers(r.Context(), chi.URLParam(r, "id"))
	list(h, w, r, answers, err)
}

func (h *Handler) UpvoteAnswer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UpvoteAnswer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "aid")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Projects

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var body CreateProjectBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	id, err := h.service.CreateProject(r.Context(), identity(r), campuscontent.CreateProjectRequest{
		Title:       body.Title,
		Description: body.Description,
		Skills:      body.Skills,
	})
	h.created(w, r, id, err)
}

// ListProjects lists projects filtered by q and skill. open=true hides
// closed projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := campuscontent.ProjectFilter{
		Term:  q.Get("q"),
		Skill: q.Get("skill"),
		Sort:  q.Get("sort"),
	}
	if v := q.Get("open"); v != "" {
		open, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, &campuscontent.ValidationError{Field: "open", Message: "must be true or false"})
			return
		}
		filter.OpenOnly = open
	}
	projects, err := h.service.ListProjects(r.Context(), filter)
	list(h, w, r, projects, err)
}

func (h *Handler) UpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	err := h.service.UpdateProjectStatus(r.Context(), identity(r), chi.URLParam(r, "id"), campuscontent.ProjectStatus(status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApplyToProject(w http.ResponseWriter, r *http.Request) {
	var body ApplyBody
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		h.badRequest(w, r, "invalid request body")
		return
	}
	id, err := h.service.ApplyToProject(r.Context(), identity(r), chi.URLParam(r, "id"), campuscontent.CreateApplicationRequest{
		Message: body.Message,
		Contact: body.Contact,
	})
	h.created(w, r, id, err)
}

// ListApplications lists a project's applications. Only the project owner
// may read them.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListApplications(r.Context(), identity(r), chi.URLParam(r, "id"))
	list(h, w, r, apps, err)
}

func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	err := h.service.UpdateApplicationStatus(r.Context(), identity(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "aid"), campuscontent.ApplicationStatus(status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
