package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/ports"
)

type ReportUseCase struct {
	api      ports.ReportsAPI
	exporter ports.ReportExporter
}

func NewReportUseCase(api ports.ReportsAPI, exporter ports.ReportExporter) *ReportUseCase {
	return &ReportUseCase{api: api, exporter: exporter}
}

// Ranked orders reports by score, newest first among equal scores.
func (uc *ReportUseCase) Ranked(ctx context.Context) ([]domain.Report, error) {
	reports, err := uc.api.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	Rank(reports)
	return reports, nil
}

func Rank(reports []domain.Report) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Score != reports[j].Score {
			return reports[i].Score > reports[j].Score
		}
		return reports[i].Time().After(reports[j].Time())
	})
}

func (uc *ReportUseCase) Export(ctx context.Context, path string) ([]domain.Report, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.Invalid("export reports", "output path is required")
	}
	if uc.exporter == nil {
		return nil, fmt.Errorf("export reports: no exporter configured")
	}
	reports, err := uc.Ranked(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.exporter.Export(ctx, path, reports); err != nil {
		return nil, fmt.Errorf("export reports: %w", err)
	}
	return reports, nil
}
