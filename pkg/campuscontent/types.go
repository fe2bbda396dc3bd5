package campuscontent

import "time"

// Kind identifies an entity type.
type Kind string

const (
	KindNote        Kind = "note"
	KindListing     Kind = "listing"
	KindEvent       Kind = "event"
	KindQuestion    Kind = "question"
	KindProject     Kind = "project"
	KindAnswer      Kind = "answer"
	KindApplication Kind = "application"
)

// Top-level collection names and nested collection names.
const (
	CollectionNotes        = "notes"
	CollectionMarketplace  = "marketplace"
	CollectionEvents       = "events"
	CollectionDoubts       = "doubts"
	CollectionProjects     = "projects"
	CollectionAnswers      = "answers"
	CollectionApplications = "applicants"
)

// Document field names shared by the codecs, the stores and the counters.
const (
	FieldID                = "id"
	FieldCreatedAt         = "createdAt"
	FieldOwnerID           = "ownerId"
	FieldOwnerDisplayName  = "ownerDisplayName"
	FieldTitle             = "title"
	FieldDescription       = "description"
	FieldSubject           = "subject"
	FieldSemester          = "semester"
	FieldTags              = "tags"
	FieldFileURL           = "fileURL"
	FieldFileName          = "fileName"
	FieldDownloadCount     = "downloadCount"
	FieldPrice             = "price"
	FieldCategory          = "category"
	FieldCondition         = "condition"
	FieldContact           = "contact"
	FieldImageURL          = "imageURL"
	FieldImageKey          = "imageKey"
	FieldViewCount         = "viewCount"
	FieldStatus            = "status"
	FieldDate              = "date"
	FieldLocation          = "location"
	FieldMaxParticipants   = "maxParticipants"
	FieldRegisterLink      = "registerLink"
	FieldRegistrationCount = "registrationCount"
	FieldPosterURL         = "posterURL"
	FieldPosterKey         = "posterKey"
	FieldBody              = "body"
	FieldUpvoteCount       = "upvoteCount"
	FieldAnswerCount       = "answerCount"
	FieldSkills            = "skills"
	FieldApplicantCount    = "applicantCount"
	FieldMessage           = "message"
	FieldAppliedAt         = "appliedAt"
)

// ListingStatus is the lifecycle state of a marketplace listing.
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusRemoved   ListingStatus = "removed"
	ListingStatusSold      ListingStatus = "sold"
)

// ProjectStatus is the lifecycle state of a collaborative project.
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "open"
	ProjectStatusClosed ProjectStatus = "closed"
)

// ApplicationStatus is the review state of a project application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Envelope holds the fields common to every stored entity. ID and CreatedAt
// are assigned by the store and are never taken from callers.
type Envelope struct {
	ID               string    `json:"id" yaml:"id"`
	CreatedAt        time.Time `json:"createdAt" yaml:"createdAt"`
	OwnerID          string    `json:"ownerId" yaml:"ownerId"`
	OwnerDisplayName string    `json:"ownerDisplayName" yaml:"ownerDisplayName"`
}

// Base returns the envelope of an entity.
func (e Envelope) Base() Envelope { return e }

// ContentItem is implemented by every entity variant. Callers dispatch on the
// concrete type with a type switch.
type ContentItem interface {
	Kind() Kind
	Base() Envelope
}

// Note is an uploaded study document.
type Note struct {
	Envelope      `yaml:",inline"`
	Title         string   `json:"title" yaml:"title"`
	Subject       string   `json:"subject" yaml:"subject"`
	Semester      string   `json:"semester" yaml:"semester"`
	Description   string   `json:"description" yaml:"description"`
	Tags          []string `json:"tags" yaml:"tags"`
	FileURL       string   `json:"fileURL" yaml:"fileURL"`
	FileName      string   `json:"fileName" yaml:"fileName"`
	DownloadCount int64    `json:"downloadCount" yaml:"downloadCount"`
}

func (Note) Kind() Kind { return KindNote }

// Listing is a marketplace item for sale.
type Listing struct {
	Envelope    `yaml:",inline"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Price       float64       `json:"price" yaml:"price"`
	Category    string        `json:"category" yaml:"category"`
	Condition   string        `json:"condition" yaml:"condition"`
	Contact     string        `json:"contact" yaml:"contact"`
	ImageURL    string        `json:"imageURL,omitempty" yaml:"imageURL"`
	ImageKey    string        `json:"-" yaml:"-"`
	ViewCount   int64         `json:"viewCount" yaml:"viewCount"`
	Status      ListingStatus `json:"status" yaml:"status"`
}

func (Listing) Kind() Kind { return KindListing }

// Event is a dated campus event.
type Event struct {
	Envelope          `yaml:",inline"`
	Title             string    `json:"title" yaml:"title"`
	Description       string    `json:"description" yaml:"description"`
	Date              time.Time `json:"date" yaml:"date"`
	Location          string    `json:"location" yaml:"location"`
	Category          string    `json:"category" yaml:"category"`
	MaxParticipants   *int64    `json:"maxParticipants,omitempty" yaml:"maxParticipants"`
	RegisterLink      string    `json:"registerLink,omitempty" yaml:"registerLink"`
	RegistrationCount int64     `json:"registrationCount" yaml:"registrationCount"`
	PosterURL         string    `json:"posterURL,omitempty" yaml:"posterURL"`
	PosterKey         string    `json:"-" yaml:"-"`
}

func (Event) Kind() Kind { return KindEvent }

// Question is a Q&A doubt.
type Question struct {
	Envelope    `yaml:",inline"`
	Title       string   `json:"title" yaml:"title"`
	Body        string   `json:"body" yaml:"body"`
	Tags        []string `json:"tags" yaml:"tags"`
	UpvoteCount int64    `json:"upvoteCount" yaml:"upvoteCount"`
	AnswerCount int64    `json:"answerCount" yaml:"answerCount"`
}

func (Question) Kind() Kind { return KindQuestion }

// Project is a collaborative project looking for members.
type Project struct {
	Envelope       `yaml:",inline"`
	Title          string        `json:"title" yaml:"title"`
	Description    string        `json:"description" yaml:"description"`
	Skills         []string      `json:"skills" yaml:"skills"`
	Status         ProjectStatus `json:"status" yaml:"status"`
	ApplicantCount int64         `json:"applicantCount" yaml:"applicantCount"`
}

func (Project) Kind() Kind { return KindProject }

// Answer is a reply nested under a Question.
type Answer struct {
	Envelope    `yaml:",inline"`
	QuestionID  string `json:"questionId" yaml:"questionId"`
	Body        string `json:"body" yaml:"body"`
	UpvoteCount int64  `json:"upvoteCount" yaml:"upvoteCount"`
}

func (Answer) Kind() Kind { return KindAnswer }

// Application is a request to join a Project. Its appliedAt timestamp is the
// envelope's CreatedAt.
type Application struct {
	Envelope  `yaml:",inline"`
	ProjectID string            `json:"projectId" yaml:"projectId"`
	Message   string            `json:"message" yaml:"message"`
	Contact   string            `json:"contact" yaml:"contact"`
	Status    ApplicationStatus `json:"status" yaml:"status"`
}

func (Application) Kind() Kind { return KindApplication }

// AppliedAt returns the time the application was submitted.
func (a Application) AppliedAt() time.Time { return a.CreatedAt }

// Identity is the authenticated caller performing a write.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// Name returns the display name, falling back to the email address.
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// Outcome reports the result of a best-effort operation. It is never
// returned as an error: callers may inspect it but are not required to.
type Outcome struct {
	Err error
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool { return o.Err == nil }
