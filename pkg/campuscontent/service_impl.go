package campuscontent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/campus-content/pkg/campuscontent/objectkey"
	"github.com/tendant/campus-content/pkg/campuscontent/query"
)

// service implements the Service interface
type service struct {
	store    Store
	blobs    BlobStore
	urls     URLStrategy
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	keyGenerators map[Kind]objectkey.Generator
	fallbackMode  FallbackMode
	demo          *DemoDataset

	assets   *AssetPublisher
	counters *CounterCoordinator
	fallback *Fallback

	notes     *Gateway[Note]
	listings  *Gateway[Listing]
	events    *Gateway[Event]
	questions *Gateway[Question]
	projects  *Gateway[Project]

	answers      *Subcollection[Answer]
	applications *Subcollection[Application]
}

// Option is a functional option for configuring the service
type Option func(*service)

// WithStore sets the document store
func WithStore(store Store) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithBlobStore sets the blob store for note files, listing images and
// event posters
func WithBlobStore(blobs BlobStore) Option {
	return func(s *service) {
		s.blobs = blobs
	}
}

// WithURLStrategy sets how published asset URLs are generated
func WithURLStrategy(urls URLStrategy) Option {
	return func(s *service) {
		s.urls = urls
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithRecorder sets the recorder for best-effort failures
func WithRecorder(recorder Recorder) Option {
	return func(s *service) {
		s.recorder = recorder
	}
}

// WithClock overrides the time source used for asset keys and event windows
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithFallbackMode selects what denied list reads return
func WithFallbackMode(mode FallbackMode) Option {
	return func(s *service) {
		s.fallbackMode = mode
	}
}

// WithDemoDataset replaces the built-in demo dataset
func WithDemoDataset(ds *DemoDataset) Option {
	return func(s *service) {
		s.demo = ds
	}
}

// WithKeyGenerator overrides the asset key generator of one kind
func WithKeyGenerator(kind Kind, gen objectkey.Generator) Option {
	return func(s *service) {
		if s.keyGenerators == nil {
			s.keyGenerators = make(map[Kind]objectkey.Generator)
		}
		s.keyGenerators[kind] = gen
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		logger:        slog.Default(),
		recorder:      NewNoopRecorder(),
		now:           time.Now,
		keyGenerators: make(map[Kind]objectkey.Generator),
		fallbackMode:  FallbackEmpty,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, ErrStoreRequired
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = NewNoopRecorder()
	}

	if s.fallbackMode == FallbackDemo && s.demo == nil {
		ds, err := LoadDemoDataset(nil, s.now())
		if err != nil {
			return nil, err
		}
		s.demo = ds
	}

	s.assets = NewAssetPublisher(s.blobs, s.urls, s.logger)
	s.counters = NewCounterCoordinator(s.store, s.logger, s.recorder)
	s.fallback = NewFallback(s.fallbackMode, s.demo, s.logger, s.recorder, WithFallbackClock(s.now))

	s.notes = newGateway(s, noteSchema)
	s.listings = newGateway(s, listingSchema)
	s.events = newGateway(s, eventSchema)
	s.questions = newGateway(s, questionSchema)
	s.projects = newGateway(s, projectSchema)
	s.answers = newSubcollection(s, answerSchema)
	s.applications = newSubcollection(s, applicationSchema)

	return s, nil
}

func authenticated(owner Identity) error {
	if owner.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// apply runs a local pipeline and reports an unknown sort as a validation
// error.
func apply[T any](p query.Pipeline[T], items []T, opts query.Options[T]) ([]T, error) {
	out, err := p.Apply(items, opts)
	if errors.Is(err, query.ErrUnknownSort) {
		return nil, &ValidationError{
			Field:   "sort",
			Message: fmt.Sprintf("unknown sort %q, want one of %s", opts.Sort, strings.Join(p.SortNames(), ", ")),
		}
	}
	return out, err
}

func ownedBy(e Envelope, owner Identity) error {
	if e.OwnerID != owner.ID {
		return fmt.Errorf("%w: %s is not the owner", ErrAccessDenied, owner.ID)
	}
	return nil
}

// Notes

func (s *service) CreateNote(ctx context.Context, owner Identity, req CreateNoteRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.notes.Create(ctx, req.note(owner), req.File)
}

func (s *service) ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error) {
	items, err := s.notes.List(ctx, nil)
	items, err = Resolve(s.fallback, KindNote, items, err)
	if err != nil {
		return nil, err
	}
	return apply(notePipeline, items, filter.options())
}

func (s *service) RecordNoteDownload(ctx context.Context, id string) Outcome {
	return s.counters.Increment(ctx, KindNote, CollectionNotes, id, FieldDownloadCount)
}

// Marketplace

func (s *service) CreateListing(ctx context.Context, owner Identity, req CreateListingRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.listings.Create(ctx, req.listing(owner), req.Image)
}

func (s *service) ListListings(ctx context.Context, filter ListingFilter) ([]Listing, error) {
	price, err := query.ParsePriceRange(string(filter.Price))
	if err != nil {
		return nil, &ValidationError{Field: FieldPrice, Message: err.Error()}
	}
	filter.Price = price
	items, err := s.listings.List(ctx, storeCondition(FieldCategory, OpEqual, filter.Category))
	items, err = Resolve(s.fallback, KindListing, items, err)
	if err != nil {
		return nil, err
	}
	return apply(listingPipeline, items, filter.options())
}

func (s *service) RecordListingView(ctx context.Context, id string) Outcome {
	return s.counters.Increment(ctx, KindListing, CollectionMarketplace, id, FieldViewCount)
}

func (s *service) UpdateListingStatus(ctx context.Context, owner Identity, id string, status ListingStatus) error {
	if err := authenticated(owner); err != nil {
		return err
	}
	if err := ValidateListingStatus(status); err != nil {
		return err
	}
	l, err := s.listings.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ownedBy(l.Envelope, owner); err != nil {
		return err
	}
	return s.listings.UpdateField(ctx, id, FieldStatus, string(status))
}

// Events

func (s *service) CreateEvent(ctx context.Context, owner Identity, req CreateEventRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.events.Create(ctx, req.event(owner), req.Poster)
}

func (s *service) ListEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	items, err := s.events.List(ctx, nil)
	items, err = Resolve(s.fallback, KindEvent, items, err)
	if err != nil {
		return nil, err
	}
	return apply(eventPipeline, items, filter.options(s.now()))
}

func (s *service) RecordEventRegistration(ctx context.Context, id string) Outcome {
	return s.counters.Increment(ctx, KindEvent, CollectionEvents, id, FieldRegistrationCount)
}

// Q&A

func (s *service) CreateQuestion(ctx context.Context, owner Identity, req CreateQuestionRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.questions.Create(ctx, req.question(owner), nil)
}

func (s *service) ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error) {
	items, err := s.questions.List(ctx, storeCondition(FieldTags, OpArrayContains, filter.Tag))
	items, err = Resolve(s.fallback, KindQuestion, items, err)
	if err != nil {
		return nil, err
	}
	return apply(questionPipeline, items, filter.options())
}

func (s *service) UpvoteQuestion(ctx context.Context, id string) error {
	return s.questions.Increment(ctx, id, FieldUpvoteCount)
}

func (s *service) CreateAnswer(ctx context.Context, owner Identity, questionID string, req CreateAnswerRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.answers.Create(ctx, questionID, Answer{
		Envelope:   owned(owner),
		QuestionID: questionID,
		Body:       req.Body,
	})
}

func (s *service) ListAnswers(ctx context.Context, questionID string) ([]Answer, error) {
	items, err := s.answers.List(ctx, questionID)
	return Resolve(s.fallback, KindAnswer, items, err)
}

func (s *service) UpvoteAnswer(ctx context.Context, questionID, answerID string) error {
	return s.answers.Increment(ctx, questionID, answerID, FieldUpvoteCount)
}

// Projects

func (s *service) CreateProject(ctx context.Context, owner Identity, req CreateProjectRequest) (string, error) {
	if err := authenticated(owner); err != nil {
		return "", err
	}
	return s.projects.Create(ctx, req.project(owner), nil)
}

func (s *service) ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error) {
	items, err := s.projects.List(ctx, storeCondition(FieldSkills, OpArrayContains, filter.Skill))
	items, err = Resolve(s.fallback, KindProject, items, err)
	if err != nil {
		return nil, err
	}
	return apply(projectPipeline, items, filter.options())
}

func (s *service) UpdateProjectStatus(ctx context.Context, owner Identity, id string, status ProjectStatus) error {
	if err := authenticated(owner); err != nil {
		return err
	}
	if err := ValidateProjectStatus(status); err != nil {
		return err
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ownedBy(p.Envelope, owner); err != nil {
		return err
	}
	return s.projects.UpdateField(ctx, id, FieldStatus, string(status))
}

func (s *service) ApplyToProject(ctx context.Context, applicant Identity, projectID string, req CreateApplicationRequest) (string, error) {
	if err := authenticated(applicant); err != nil {
		return "", err
	}
	return s.applications.Create(ctx, projectID, Application{
		Envelope:  owned(applicant),
		ProjectID: projectID,
		Message:   req.Message,
		Contact:   req.Contact,
	})
}

func (s *service) ListApplications(ctx context.Context, owner Identity, projectID string) ([]Application, error) {
	if err := authenticated(owner); err != nil {
		return nil, err
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(p.Envelope, owner); err != nil {
		return nil, err
	}
	items, err := s.applications.List(ctx, projectID)
	return Resolve(s.fallback, KindApplication, items, err)
}

func (s *service) UpdateApplicationStatus(ctx context.Context, owner Identity, projectID, applicationID string, status ApplicationStatus) error {
	if err := authenticated(owner); err != nil {
		return err
	}
	if err := ValidateApplicationStatus(status); err != nil {
		return err
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if err := ownedBy(p.Envelope, owner); err != nil {
		return err
	}
	return s.applications.UpdateField(ctx, projectID, applicationID, FieldStatus, string(status))
}

// Delete

func (s *service) Delete(ctx context.Context, owner Identity, kind Kind, id string) error {
	if err := authenticated(owner); err != nil {
		return err
	}

	switch kind {
	case KindNote:
		return deleteOwned(ctx, s.notes, owner, id, nil)
	case KindListing:
		return deleteOwned(ctx, s.listings, owner, id, nil)
	case KindEvent:
		return deleteOwned(ctx, s.events, owner, id, nil)
	case KindQuestion:
		return deleteOwned(ctx, s.questions, owner, id, s.answers.DeleteAll)
	case KindProject:
		return deleteOwned(ctx, s.projects, owner, id, s.applications.DeleteAll)
	}
	return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

// deleteOwned checks ownership, removes children and then the entity.
func deleteOwned[T ContentItem](ctx context.Context, g *Gateway[T], owner Identity, id string, children func(context.Context, string) error) error {
	item, err := g.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := ownedBy(item.Base(), owner); err != nil {
		return err
	}
	if children != nil {
		if err := children(ctx, id); err != nil {
			return err
		}
	}
	return g.Delete(ctx, id)
}

// Assets

func (s *service) Asset(ctx context.Context, key string) (*AssetReader, error) {
	return s.assets.Open(ctx, key)
}
