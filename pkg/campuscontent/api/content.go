package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tendant/campus-content/pkg/campuscontent"
	"github.com/tendant/campus-content/pkg/campuscontent/query"
)

// dateLayouts are the accepted forms of an event date
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseForm reads a multipart create request. Plain url-encoded forms are
// accepted for requests without a file.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	err := r.ParseMultipartForm(h.maxUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		h.badRequest(w, r, "invalid form: "+err.Error())
		return false
	}
	return true
}

// formAsset returns the uploaded file under field, or nil when absent. The
// caller closes the returned file.
func formAsset(r *http.Request, field string) (*campuscontent.Asset, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &campuscontent.Asset{
		Body:        file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file, nil
}

func (h *Handler) withAsset(w http.ResponseWriter, r *http.Request, field string) (*campuscontent.Asset, func(), bool) {
	asset, file, err := formAsset(r, field)
	if err != nil {
		h.badRequest(w, r, "invalid "+field+": "+err.Error())
		return nil, nil, false
	}
	return asset, func() {
		if file != nil {
			file.Close()
		}
	}, true
}

// Notes

// CreateNote uploads a note. The PDF is sent in the "file" part.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	file, done, ok := h.withAsset(w, r, "file")
	if !ok {
		return
	}
	defer done()

	id, err := h.service.CreateNote(r.Context(), identity(r), campuscontent.CreateNoteRequest{
		Title:       r.FormValue("title"),
		Subject:     r.FormValue("subject"),
		Semester:    r.FormValue("semester"),
		Description: r.FormValue("description"),
		Tags:        campuscontent.SplitList(r.FormValue("tags")),
		File:        file,
	})
	h.created(w, r, id, err)
}

// ListNotes lists notes filtered by q, semester and subject.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := h.service.ListNotes(r.Context(), campuscontent.NoteFilter{
		Term:     q.Get("q"),
		Semester: q.Get("semester"),
		Subject:  q.Get("subject"),
		Sort:     q.Get("sort"),
	})
	list(h, w, r, notes, err)
}

func (h *Handler) RecordNoteDownload(w http.ResponseWriter, r *http.Request) {
	h.outcome(w, r, h.service.RecordNoteDownload(r.Context(), chi.URLParam(r, "id")))
}

// Marketplace

// CreateListing creates a marketplace listing with an optional "image" part.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	price, err := campuscontent.ParsePrice(r.FormValue("price"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	image, done, ok := h.withAsset(w, r, "image")
	if !ok {
		return
	}
	defer done()

	id, err := h.service.CreateListing(r.Context(), identity(r), campuscontent.CreateListingRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Contact:     r.FormValue("contact"),
		Image:       image,
	})
	h.created(w, r, id, err)
}

// ListListings lists available listings filtered by q, category and price.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := h.service.ListListings(r.Context(), campuscontent.ListingFilter{
		Term:     q.Get("q"),
		Category: q.Get("category"),
		Price:    query.PriceRange(q.Get("price")),
		Sort:     q.Get("sort"),
	})
	list(h, w, r, listings, err)
}

func (h *Handler) RecordListingView(w http.ResponseWriter, r *http.Request) {
	h.outcome(w, r, h.service.RecordListingView(r.Context(), chi.URLParam(r, "id")))
}

func (h *Handler) UpdateListingStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := h.decodeStatus(w, r)
	if !ok {
		return
	}
	err := h.service.UpdateListingStatus(r.Context(), identity(r), chi.URLParam(r, "id"), campuscontent.ListingStatus(status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events

// CreateEvent creates an event with an optional "poster" part.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	maxParticipants, err := optionalInt(r.FormValue("maxParticipants"), "maxParticipants")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	poster, done, ok := h.withAsset(w, r, "poster")
	if !ok {
		return
	}
	defer done()

	id, err := h.service.CreateEvent(r.Context(), identity(r), campuscontent.CreateEventRequest{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		Date:            date,
		Location:        r.FormValue("location"),
		Category:        r.FormValue("category"),
		MaxParticipants: maxParticipants,
		RegisterLink:    r.FormValue("registerLink"),
		Poster:          poster,
	})
	h.created(w, r, id, err)
}

// ListEvents lists events filtered by q, month, year and window.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := campuscontent.EventFilter{
		Term:   q.Get("q"),
		Window: campuscontent.EventWindow(q.Get("window")),
		Sort:   q.Get("sort"),
	}
	if v := q.Get("month"); v != "" && v != "all" {
		month, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, &campuscontent.ValidationError{Field: "month", Message: "must be a number"})
			return
		}
		filter.Month = time.Month(month)
	}
	if v := q.Get("year"); v != "" && v != "all" {
		year, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, r, &campuscontent.ValidationError{Field: "year", Message: "must be a number"})
			return
		}
		filter.Year = year
	}

	events, err := h.service.ListEvents(r.Context(), filter)
	list(h, w, r, events, err)
}

func (h *Handler) RecordEventRegistration(w http.ResponseWriter, r *http.Request) {
	h.outcome(w, r, h.service.RecordEventRegistration(r.Context(), chi.URLParam(r, "id")))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &campuscontent.ValidationError{Field: campuscontent.FieldDate, Message: "must be a date"}
}

func optionalInt(s, field string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return nil, &campuscontent.ValidationError{Field: field, Message: "must be a positive whole number"}
	}
	return &n, nil
}
