package campuscontent

import (
	"strings"
	"time"

	"github.com/tendant/campus-content/pkg/campuscontent/query"
)

// Sort names shared by the list pipelines.
const (
	SortRecent    = "recent"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortPopular   = "popular"
	SortTitle     = "title"
	SortDate      = "date"
)

// NoteFilter narrows a note listing.
type NoteFilter struct {
	Term     string
	Semester string
	Subject  string
	Sort     string
}

// ListingFilter narrows a marketplace listing. Category is pushed to the
// store and checked again locally so fallback lists honor it; the price
// range, term and status gate are applied locally.
type ListingFilter struct {
	Term     string
	Category string
	Price    query.PriceRange
	Sort     string
}

// EventWindow restricts events relative to the current time.
type EventWindow string

const (
	EventsAll      EventWindow = "all"
	EventsUpcoming EventWindow = "upcoming"
	EventsPast     EventWindow = "past"
)

// EventFilter narrows an event listing. Month and Year are zero for any.
type EventFilter struct {
	Term   string
	Month  time.Month
	Year   int
	Window EventWindow
	Sort   string
}

// QuestionFilter narrows a doubt listing. Tag is pushed to the store and
// checked again locally.
type QuestionFilter struct {
	Term string
	Tag  string
	Sort string
}

// ProjectFilter narrows a project listing. Skill is pushed to the store and
// checked again locally.
type ProjectFilter struct {
	Term     string
	Skill    string
	OpenOnly bool
	Sort     string
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// storeCondition builds the single store-side equality for a filter value.
func storeCondition(field string, op Operator, value string) *Condition {
	if isAll(value) {
		return nil
	}
	return &Condition{Field: field, Op: op, Value: value}
}

func createdAtKey(e Envelope) int64 { return e.CreatedAt.UnixMicro() }

var notePipeline = query.Pipeline[Note]{
	Text: func(n Note) []string {
		return append([]string{n.Title, n.Subject}, n.Tags...)
	},
	Sorts: map[string]query.Comparator[Note]{
		SortRecent:  query.Descending(func(n Note) int64 { return createdAtKey(n.Envelope) }),
		SortPopular: query.Descending(func(n Note) int64 { return n.DownloadCount }),
		SortTitle:   query.FoldAscending(func(n Note) string { return n.Title }),
	},
}

func (f NoteFilter) options() query.Options[Note] {
	return query.Options[Note]{
		Term: f.Term,
		Filters: []query.Predicate[Note]{
			query.Equals(func(n Note) string { return n.Semester }, f.Semester),
			query.Equals(func(n Note) string { return n.Subject }, f.Subject),
		},
		Sort: f.Sort,
	}
}

var listingPipeline = query.Pipeline[Listing]{
	Gate: func(l Listing) bool { return l.Status == ListingStatusAvailable },
	Text: func(l Listing) []string {
		return []string{l.Title, l.Description, l.OwnerDisplayName}
	},
	Sorts: map[string]query.Comparator[Listing]{
		SortRecent:    query.Descending(func(l Listing) int64 { return createdAtKey(l.Envelope) }),
		SortPriceLow:  query.Ascending(func(l Listing) float64 { return l.Price }),
		SortPriceHigh: query.Descending(func(l Listing) float64 { return l.Price }),
		SortPopular:   query.Descending(func(l Listing) int64 { return l.ViewCount }),
		SortTitle:     query.FoldAscending(func(l Listing) string { return l.Title }),
	},
}

func (f ListingFilter) options() query.Options[Listing] {
	return query.Options[Listing]{
		Term: f.Term,
		Filters: []query.Predicate[Listing]{
			query.Equals(func(l Listing) string { return l.Category }, f.Category),
			query.InRange(func(l Listing) float64 { return l.Price }, f.Price),
		},
		Sort: f.Sort,
	}
}

var eventPipeline = query.Pipeline[Event]{
	Text: func(e Event) []string {
		return []string{e.Title, e.Description, e.Location, e.Category}
	},
	Sorts: map[string]query.Comparator[Event]{
		SortDate:    query.Ascending(func(e Event) int64 { return e.Date.UnixMicro() }),
		SortRecent:  query.Descending(func(e Event) int64 { return createdAtKey(e.Envelope) }),
		SortPopular: query.Descending(func(e Event) int64 { return e.RegistrationCount }),
		SortTitle:   query.FoldAscending(func(e Event) string { return e.Title }),
	},
}

func (f EventFilter) options(now time.Time) query.Options[Event] {
	preds := []query.Predicate[Event]{}
	if f.Month != 0 {
		preds = append(preds, func(e Event) bool { return e.Date.Month() == f.Month })
	}
	if f.Year != 0 {
		preds = append(preds, func(e Event) bool { return e.Date.Year() == f.Year })
	}
	switch f.Window {
	case EventsUpcoming:
		preds = append(preds, func(e Event) bool { return !e.Date.Before(now) })
	case EventsPast:
		preds = append(preds, func(e Event) bool { return e.Date.Before(now) })
	}
	return query.Options[Event]{Term: f.Term, Filters: preds, Sort: f.Sort}
}

// Validate rejects unknown windows and out-of-range months.
func (f EventFilter) Validate() error {
	switch f.Window {
	case "", EventsAll, EventsUpcoming, EventsPast:
	default:
		return &ValidationError{Field: "window", Message: "unknown event window " + string(f.Window)}
	}
	if f.Month < 0 || f.Month > 12 {
		return &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	return nil
}

var questionPipeline = query.Pipeline[Question]{
	Text: func(q Question) []string {
		return append([]string{q.Title, q.Body}, q.Tags...)
	},
	Sorts: map[string]query.Comparator[Question]{
		SortRecent:  query.Descending(func(q Question) int64 { return createdAtKey(q.Envelope) }),
		SortPopular: query.Descending(func(q Question) int64 { return q.UpvoteCount }),
		SortTitle:   query.FoldAscending(func(q Question) string { return q.Title }),
	},
}

func (f QuestionFilter) options() query.Options[Question] {
	return query.Options[Question]{
		Term:    f.Term,
		Filters: []query.Predicate[Question]{query.Contains(func(q Question) []string { return q.Tags }, f.Tag)},
		Sort:    f.Sort,
	}
}

var projectPipeline = query.Pipeline[Project]{
	Text: func(p Project) []string {
		return append([]string{p.Title, p.Description}, p.Skills...)
	},
	Sorts: map[string]query.Comparator[Project]{
		SortRecent:  query.Descending(func(p Project) int64 { return createdAtKey(p.Envelope) }),
		SortPopular: query.Descending(func(p Project) int64 { return p.ApplicantCount }),
		SortTitle:   query.FoldAscending(func(p Project) string { return p.Title }),
	},
}

func (f ProjectFilter) options() query.Options[Project] {
	preds := []query.Predicate[Project]{
		query.Contains(func(p Project) []string { return p.Skills }, f.Skill),
	}
	if f.OpenOnly {
		preds = append(preds, func(p Project) bool { return p.Status == ProjectStatusOpen })
	}
	return query.Options[Project]{Term: f.Term, Filters: preds, Sort: f.Sort}
}
