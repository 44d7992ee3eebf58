package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/ports"
)

type ResumeUseCase struct {
	api ports.ResumesAPI
}

func NewResumeUseCase(api ports.ResumesAPI) *ResumeUseCase {
	return &ResumeUseCase{api: api}
}

// List returns the owned resumes with duplicates of the same person removed.
func (uc *ResumeUseCase) List(ctx context.Context) ([]domain.ResumeRecord, error) {
	records, err := uc.api.ListResumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return Dedupe(records), nil
}

func (uc *ResumeUseCase) Delete(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return domain.Invalid("delete resumes", "Select at least one resume to delete.")
	}
	if err := uc.api.BulkDeleteResumes(ctx, ids); err != nil {
		return fmt.Errorf("delete resumes: %w", err)
	}
	return nil
}
