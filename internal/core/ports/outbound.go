package ports

import (
	"context"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

// CredentialStore holds the access/refresh pair. The request pipeline is its only writer.
type CredentialStore interface {
	Credentials() domain.Credentials
	SetCredentials(creds domain.Credentials) error
	SetAccess(access string) error
	Clear() error
}

// CredentialReader is the read-only view handed to everything except the pipeline.
type CredentialReader interface {
	Credentials() domain.Credentials
}

// SessionStore persists the upload workflow snapshot for the current session.
// Load returns nil, nil when nothing was saved.
type SessionStore interface {
	Save(ctx context.Context, snapshot domain.SessionSnapshot) error
	Load(ctx context.Context) (*domain.SessionSnapshot, error)
	Clear(ctx context.Context) error
}

// AuthAPI covers the account endpoints.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
}

// JobsAPI covers job listing and skill synchronization.
type JobsAPI interface {
	ListJobs(ctx context.Context) ([]domain.Job, error)
	JobSkills(ctx context.Context, job string) ([]string, error)
	SaveJobSkills(ctx context.Context, job string, skills []string) error
}

// ResumesAPI covers resume upload, listing and deletion.
type ResumesAPI interface {
	ListResumes(ctx context.Context) ([]domain.ResumeRecord, error)
	UploadResumes(ctx context.Context, job string, files []domain.UploadFile) ([]domain.ExtractedResume, error)
	BulkDeleteResumes(ctx context.Context, ids []int) error
}

// ReportsAPI lists ranked analysis reports.
type ReportsAPI interface {
	ListReports(ctx context.Context) ([]domain.Report, error)
}

// EventPublisher announces completed uploads.
type EventPublisher interface {
	PublishResumesUploaded(ctx context.Context, event domain.UploadEvent) error
}

// ReportExporter writes a ranking to path.
type ReportExporter interface {
	Export(ctx context.Context, path string, reports []domain.Report) error
}
