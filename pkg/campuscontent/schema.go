package campuscontent

import (
	"math"
	"strings"

	"github.com/tendant/campus-content/pkg/campuscontent/objectkey"
)

// Schema describes how one entity type maps onto the document store.
type Schema[T ContentItem] struct {
	Kind Kind

	// Collection is the top-level name, or the nested name when Parent is
	// set.
	Collection string

	// Parent is set for nested types. ParentCounter names the parent field
	// incremented after each child write.
	Parent        *ParentLink
	ParentCounter string

	// Order is the canonical list ordering enforced by the store.
	Order Order

	// Counters are reset to zero on create.
	Counters []string

	// Defaults fills fields the caller may omit, such as status.
	Defaults map[string]any

	// Asset is nil for types that never carry a binary payload.
	Asset *AssetSpec

	Encode   func(T) map[string]any
	Decode   func(*Document) T
	Validate func(T) error
}

// ParentLink names the top-level collection holding a nested type's parent.
type ParentLink struct {
	Kind       Kind
	Collection string
}

// AssetSpec describes the optional binary payload of a type.
type AssetSpec struct {
	Keys     objectkey.Generator
	Required bool
	URLField string
	KeyField string
}

// CollectionPath returns the store collection for a parent ID. Top-level
// types ignore parentID.
func (s Schema[T]) CollectionPath(parentID string) string {
	if s.Parent == nil {
		return s.Collection
	}
	return s.Parent.Collection + "/" + parentID + "/" + s.Collection
}

// newDocumentFields encodes item for insertion: counters are zeroed and
// defaults applied where the item left a field empty.
func (s Schema[T]) newDocumentFields(item T) map[string]any {
	fields := s.Encode(item)
	for _, c := range s.Counters {
		fields[c] = int64(0)
	}
	for k, v := range s.Defaults {
		if cur, ok := fields[k]; !ok || cur == "" {
			fields[k] = v
		}
	}
	return fields
}

func (s Schema[T]) decodeAll(docs []*Document) []T {
	out := make([]T, len(docs))
	for i, d := range docs {
		out[i] = s.Decode(d)
	}
	return out
}

func envelopeFields(e Envelope) map[string]any {
	return map[string]any{
		FieldOwnerID:          e.OwnerID,
		FieldOwnerDisplayName: e.OwnerDisplayName,
	}
}

func decodeEnvelope(d *Document) Envelope {
	return Envelope{
		ID:               d.ID,
		CreatedAt:        d.CreatedAt,
		OwnerID:          FieldString(d.Fields, FieldOwnerID),
		OwnerDisplayName: FieldString(d.Fields, FieldOwnerDisplayName),
	}
}

// parentIDOf extracts the parent ID from a nested collection path.
func parentIDOf(collection string) string {
	parts := strings.Split(collection, "/")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

var noteSchema = Schema[Note]{
	Kind:       KindNote,
	Collection: CollectionNotes,
	Order:      Order{Field: FieldCreatedAt, Direction: Desc},
	Counters:   []string{FieldDownloadCount},
	Asset: &AssetSpec{
		Keys:     objectkey.NewOwnerTimestampGenerator("notes", ".pdf"),
		Required: true,
		URLField: FieldFileURL,
		KeyField: FieldFileName,
	},
	Encode: func(n Note) map[string]any {
		f := envelopeFields(n.Envelope)
		f[FieldTitle] = n.Title
		f[FieldSubject] = n.Subject
		f[FieldSemester] = n.Semester
		f[FieldDescription] = n.Description
		f[FieldTags] = nonNil(n.Tags)
		f[FieldFileURL] = n.FileURL
		f[FieldFileName] = n.FileName
		f[FieldDownloadCount] = n.DownloadCount
		return f
	},
	Decode: func(d *Document) Note {
		return Note{
			Envelope:      decodeEnvelope(d),
			Title:         FieldString(d.Fields, FieldTitle),
			Subject:       FieldString(d.Fields, FieldSubject),
			Semester:      FieldString(d.Fields, FieldSemester),
			Description:   FieldString(d.Fields, FieldDescription),
			Tags:          FieldStrings(d.Fields, FieldTags),
			FileURL:       FieldString(d.Fields, FieldFileURL),
			FileName:      FieldString(d.Fields, FieldFileName),
			DownloadCount: FieldInt64(d.Fields, FieldDownloadCount),
		}
	},
	Validate: func(n Note) error {
		return firstError(required(FieldTitle, n.Title), required(FieldSubject, n.Subject))
	},
}

var listingSchema = Schema[Listing]{
	Kind:       KindListing,
	Collection: CollectionMarketplace,
	Order:      Order{Field: FieldCreatedAt, Direction: Desc},
	Counters:   []string{FieldViewCount},
	Defaults:   map[string]any{FieldStatus: string(ListingStatusAvailable)},
	Asset: &AssetSpec{
		Keys:     objectkey.NewOwnerTimestampGenerator("products", ""),
		URLField: FieldImageURL,
		KeyField: FieldImageKey,
	},
	Encode: func(l Listing) map[string]any {
		f := envelopeFields(l.Envelope)
		f[FieldTitle] = l.Title
		f[FieldDescription] = l.Description
		f[FieldPrice] = l.Price
		f[FieldCategory] = l.Category
		f[FieldCondition] = l.Condition
		f[FieldContact] = l.Contact
		f[FieldImageURL] = l.ImageURL
		f[FieldImageKey] = l.ImageKey
		f[FieldViewCount] = l.ViewCount
		f[FieldStatus] = string(l.Status)
		return f
	},
	Decode: func(d *Document) Listing {
		return Listing{
			Envelope:    decodeEnvelope(d),
			Title:       FieldString(d.Fields, FieldTitle),
			Description: FieldString(d.Fields, FieldDescription),
			Price:       FieldFloat64(d.Fields, FieldPrice),
			Category:    FieldString(d.Fields, FieldCategory),
			Condition:   FieldString(d.Fields, FieldCondition),
			Contact:     FieldString(d.Fields, FieldContact),
			ImageURL:    FieldString(d.Fields, FieldImageURL),
			ImageKey:    FieldString(d.Fields, FieldImageKey),
			ViewCount:   FieldInt64(d.Fields, FieldViewCount),
			Status:      ListingStatus(FieldString(d.Fields, FieldStatus)),
		}
	},
	Validate: func(l Listing) error {
		if err := firstError(required(FieldTitle, l.Title), required(FieldCategory, l.Category)); err != nil {
			return err
		}
		if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price <= 0 {
			return &ValidationError{Field: FieldPrice, Message: "must be a positive number"}
		}
		if l.Status != "" {
			return ValidateListingStatus(l.Status)
		}
		return nil
	},
}

var eventSchema = Schema[Event]{
	Kind:       KindEvent,
	Collection: CollectionEvents,
	Order:      Order{Field: FieldDate, Direction: Asc},
	Counters:   []string{FieldRegistrationCount},
	Asset: &AssetSpec{
		Keys:     objectkey.NewTimestampGenerator("events"),
		URLField: FieldPosterURL,
		KeyField: FieldPosterKey,
	},
	Encode: func(e Event) map[string]any {
		f := envelopeFields(e.Envelope)
		f[FieldTitle] = e.Title
		f[FieldDescription] = e.Description
		f[FieldDate] = TimeValue(e.Date)
		f[FieldLocation] = e.Location
		f[FieldCategory] = e.Category
		if e.MaxParticipants != nil {
			f[FieldMaxParticipants] = *e.MaxParticipants
		}
		f[FieldRegisterLink] = e.RegisterLink
		f[FieldRegistrationCount] = e.RegistrationCount
		f[FieldPosterURL] = e.PosterURL
		f[FieldPosterKey] = e.PosterKey
		return f
	},
	Decode: func(d *Document) Event {
		return Event{
			Envelope:          decodeEnvelope(d),
			Title:             FieldString(d.Fields, FieldTitle),
			Description:       FieldString(d.Fields, FieldDescription),
			Date:              FieldTime(d.Fields, FieldDate),
			Location:          FieldString(d.Fields, FieldLocation),
			Category:          FieldString(d.Fields, FieldCategory),
			MaxParticipants:   FieldOptionalInt64(d.Fields, FieldMaxParticipants),
			RegisterLink:      FieldString(d.Fields, FieldRegisterLink),
			RegistrationCount: FieldInt64(d.Fields, FieldRegistrationCount),
			PosterURL:         FieldString(d.Fields, FieldPosterURL),
			PosterKey:         FieldString(d.Fields, FieldPosterKey),
		}
	},
	Validate: func(e Event) error {
		if err := required(FieldTitle, e.Title); err != nil {
			return err
		}
		if e.Date.IsZero() {
			return &ValidationError{Field: FieldDate, Message: "is required"}
		}
		if e.MaxParticipants != nil && *e.MaxParticipants <= 0 {
			return &ValidationError{Field: FieldMaxParticipants, Message: "must be positive"}
		}
		return nil
	},
}

var questionSchema = Schema[Question]{
	Kind:       KindQuestion,
	Collection: CollectionDoubts,
	Order:      Order{Field: FieldCreatedAt, Direction: Desc},
	Counters:   []string{FieldUpvoteCount, FieldAnswerCount},
	Encode: func(q Question) map[string]any {
		f := envelopeFields(q.Envelope)
		f[FieldTitle] = q.Title
		f[FieldBody] = q.Body
		f[FieldTags] = nonNil(q.Tags)
		f[FieldUpvoteCount] = q.UpvoteCount
		f[FieldAnswerCount] = q.AnswerCount
		return f
	},
	Decode: func(d *Document) Question {
		return Question{
			Envelope:    decodeEnvelope(d),
			Title:       FieldString(d.Fields, FieldTitle),
			Body:        FieldString(d.Fields, FieldBody),
			Tags:        FieldStrings(d.Fields, FieldTags),
			UpvoteCount: FieldInt64(d.Fields, FieldUpvoteCount),
			AnswerCount: FieldInt64(d.Fields, FieldAnswerCount),
		}
	},
	Validate: func(q Question) error {
		return required(FieldTitle, q.Title)
	},
}

var projectSchema = Schema[Project]{
	Kind:       KindProject,
	Collection: CollectionProjects,
	Order:      Order{Field: FieldCreatedAt, Direction: Desc},
	Counters:   []string{FieldApplicantCount},
	Defaults:   map[string]any{FieldStatus: string(ProjectStatusOpen)},
	Encode: func(p Project) map[string]any {
		f := envelopeFields(p.Envelope)
		f[FieldTitle] = p.Title
		f[FieldDescription] = p.Description
		f[FieldSkills] = nonNil(p.Skills)
		f[FieldStatus] = string(p.Status)
		f[FieldApplicantCount] = p.ApplicantCount
		return f
	},
	Decode: func(d *Document) Project {
		return Project{
			Envelope:       decodeEnvelope(d),
			Title:          FieldString(d.Fields, FieldTitle),
			Description:    FieldString(d.Fields, FieldDescription),
			Skills:         FieldStrings(d.Fields, FieldSkills),
			Status:         ProjectStatus(FieldString(d.Fields, FieldStatus)),
			ApplicantCount: FieldInt64(d.Fields, FieldApplicantCount),
		}
	},
	Validate: func(p Project) error {
		if err := required(FieldTitle, p.Title); err != nil {
			return err
		}
		if p.Status != "" {
			return ValidateProjectStatus(p.Status)
		}
		return nil
	},
}

var answerSchema = Schema[Answer]{
	Kind:          KindAnswer,
	Collection:    CollectionAnswers,
	Parent:        &ParentLink{Kind: KindQuestion, Collection: CollectionDoubts},
	ParentCounter: FieldAnswerCount,
	Order:         Order{Field: FieldUpvoteCount, Direction: Desc},
	Counters:      []string{FieldUpvoteCount},
	Encode: func(a Answer) map[string]any {
		f := envelopeFields(a.Envelope)
		f[FieldBody] = a.Body
		f[FieldUpvoteCount] = a.UpvoteCount
		return f
	},
	Decode: func(d *Document) Answer {
		return Answer{
			Envelope:    decodeEnvelope(d),
			QuestionID:  parentIDOf(d.Collection),
			Body:        FieldString(d.Fields, FieldBody),
			UpvoteCount: FieldInt64(d.Fields, FieldUpvoteCount),
		}
	},
	Validate: func(a Answer) error {
		return required(FieldBody, a.Body)
	},
}

var applicationSchema = Schema[Application]{
	Kind:          KindApplication,
	Collection:    CollectionApplications,
	Parent:        &ParentLink{Kind: KindProject, Collection: CollectionProjects},
	ParentCounter: FieldApplicantCount,
	Order:         Order{Field: FieldCreatedAt, Direction: Desc},
	Defaults:      map[string]any{FieldStatus: string(ApplicationStatusPending)},
	Encode: func(a Application) map[string]any {
		f := envelopeFields(a.Envelope)
		f[FieldMessage] = a.Message
		f[FieldContact] = a.Contact
		f[FieldStatus] = string(a.Status)
		return f
	},
	Decode: func(d *Document) Application {
		return Application{
			Envelope:  decodeEnvelope(d),
			ProjectID: parentIDOf(d.Collection),
			Message:   FieldString(d.Fields, FieldMessage),
			Contact:   FieldString(d.Fields, FieldContact),
			Status:    ApplicationStatus(FieldString(d.Fields, FieldStatus)),
		}
	},
	Validate: func(a Application) error {
		return required(FieldMessage, a.Message)
	},
}

// ValidateListingStatus rejects statuses outside the listing lifecycle.
func ValidateListingStatus(s ListingStatus) error {
	switch s {
	case ListingStatusAvailable, ListingStatusSold, ListingStatusRemoved:
		return nil
	}
	return &ValidationError{Field: FieldStatus, Message: "unknown listing status " + string(s)}
}

// ValidateProjectStatus rejects statuses outside the project lifecycle.
func ValidateProjectStatus(s ProjectStatus) error {
	switch s {
	case ProjectStatusOpen, ProjectStatusClosed:
		return nil
	}
	return &ValidationError{Field: FieldStatus, Message: "unknown project status " + string(s)}
}

// ValidateApplicationStatus rejects statuses outside the review lifecycle.
func ValidateApplicationStatus(s ApplicationStatus) error {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected:
		return nil
	}
	return &ValidationError{Field: FieldStatus, Message: "unknown application status " + string(s)}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
