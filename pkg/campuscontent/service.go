package campuscontent

import "context"

// Service is the main interface of the content layer. Writes take the
// caller's Identity; reads are anonymous.
type Service interface {
	// Notes
	CreateNote(ctx context.Context, owner Identity, req CreateNoteRequest) (string, error)
	ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error)
	RecordNoteDownload(ctx context.Context, id string) Outcome

	// Marketplace
	CreateListing(ctx context.Context, owner Identity, req CreateListingRequest) (string, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]Listing, error)
	RecordListingView(ctx context.Context, id string) Outcome
	UpdateListingStatus(ctx context.Context, owner Identity, id string, status ListingStatus) error

	// Events
	CreateEvent(ctx context.Context, owner Identity, req CreateEventRequest) (string, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	RecordEventRegistration(ctx context.Context, id string) Outcome

	// Q&A
	CreateQuestion(ctx context.Context, owner Identity, req CreateQuestionRequest) (string, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
	UpvoteQuestion(ctx context.Context, id string) error
	CreateAnswer(ctx context.Context, owner Identity, questionID string, req CreateAnswerRequest) (string, error)
	ListAnswers(ctx context.Context, questionID string) ([]Answer, error)
	UpvoteAnswer(ctx context.Context, questionID, answerID string) error

	// Projects
	CreateProject(ctx context.Context, owner Identity, req CreateProjectRequest) (string, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]Project, error)
	UpdateProjectStatus(ctx context.Context, owner Identity, id string, status ProjectStatus) error
	ApplyToProject(ctx context.Context, applicant Identity, projectID string, req CreateApplicationRequest) (string, error)
	ListApplications(ctx context.Context, owner Identity, projectID string) ([]Application, error)
	UpdateApplicationStatus(ctx context.Context, owner Identity, projectID, applicationID string, status ApplicationStatus) error

	// Delete removes a top-level entity owned by owner. Children are deleted
	// first and assets are removed best-effort.
	Delete(ctx context.Context, owner Identity, kind Kind, id string) error

	// Asset streams a published asset from the blob store.
	Asset(ctx context.Context, key string) (*AssetReader, error)
}
