package campuscontent

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Request DTOs

// CreateNoteRequest contains parameters for uploading a note. File is
// required.
type CreateNoteRequest struct {
	Title       string
	Subject     string
	Semester    string
	Description string
	Tags        []string
	File        *Asset
}

// CreateListingRequest contains parameters for a marketplace listing. Image
// is optional.
type CreateListingRequest struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Condition   string
	Contact     string
	Image       *Asset
}

// CreateEventRequest contains parameters for an event. Poster is optional.
type CreateEventRequest struct {
	Title           string
	Description     string
	Date            time.Time
	Location        string
	Category        string
	MaxParticipants *int64
	RegisterLink    string
	Poster          *Asset
}

// CreateQuestionRequest contains parameters for a doubt.
type CreateQuestionRequest struct {
	Title string
	Body  string
	Tags  []string
}

// CreateAnswerRequest contains parameters for an answer.
type CreateAnswerRequest struct {
	Body string
}

// CreateProjectRequest contains parameters for a collaborative project.
type CreateProjectRequest struct {
	Title       string
	Description string
	Skills      []string
}

// CreateApplicationRequest contains parameters for a project application.
type CreateApplicationRequest struct {
	Message string
	Contact string
}

// ParsePrice converts submitted form input to a price. Non-numeric, non-finite
// and non-positive values are rejected.
func ParsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, &ValidationError{Field: FieldPrice, Message: "must be a number"}
	}
	if p <= 0 {
		return 0, &ValidationError{Field: FieldPrice, Message: "must be a positive number"}
	}
	return p, nil
}

// SplitList parses a comma separated tag or skill list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func owned(owner Identity) Envelope {
	return Envelope{OwnerID: owner.ID, OwnerDisplayName: owner.Name()}
}

func (r CreateNoteRequest) note(owner Identity) Note {
	return Note{
		Envelope:    owned(owner),
		Title:       strings.TrimSpace(r.Title),
		Subject:     strings.TrimSpace(r.Subject),
		Semester:    strings.TrimSpace(r.Semester),
		Description: r.Description,
		Tags:        r.Tags,
	}
}

func (r CreateListingRequest) listing(owner Identity) Listing {
	return Listing{
		Envelope:    owned(owner),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Price:       r.Price,
		Category:    strings.TrimSpace(r.Category),
		Condition:   r.Condition,
		Contact:     r.Contact,
	}
}

func (r CreateEventRequest) event(owner Identity) Event {
	return Event{
		Envelope:        owned(owner),
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		Date:            r.Date,
		Location:        r.Location,
		Category:        r.Category,
		MaxParticipants: r.MaxParticipants,
		RegisterLink:    r.RegisterLink,
	}
}

func (r CreateQuestionRequest) question(owner Identity) Question {
	return Question{
		Envelope: owned(owner),
		Title:    strings.TrimSpace(r.Title),
		Body:     r.Body,
		Tags:     r.Tags,
	}
}

func (r CreateProjectRequest) project(owner Identity) Project {
	return Project{
		Envelope:    owned(owner),
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Skills:      r.Skills,
	}
}
