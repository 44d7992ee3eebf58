package ports

import (
	"context"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

// Authenticator is the inbound contract for account actions.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, input domain.RegisterInput) error
	Logout(ctx context.Context) error
	Status() domain.AuthStatus
}

// ResumeBrowser is the inbound read/delete model for owned resumes.
type ResumeBrowser interface {
	List(ctx context.Context) ([]domain.ResumeRecord, error)
	Delete(ctx context.Context, ids []int) error
}

// ReportRanker is the inbound contract for ranked reports.
type ReportRanker interface {
	Ranked(ctx context.Context) ([]domain.Report, error)
	Export(ctx context.Context, path string) ([]domain.Report, error)
}
