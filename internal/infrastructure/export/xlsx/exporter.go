package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

const SheetName = "Ranking"

var header = []any{
	"Rank", "Name", "Score", "Status", "Date",
	"Matched Skills", "Missing Skills", "Match Ratio",
	"Experience (years)", "Education", "Education Score",
	"Certifications", "Projects", "File",
}

// Exporter writes a ranked report list as a single-sheet workbook.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, path string, reports []domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, report := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		row := []any{
			i + 1,
			report.Name,
			report.Score,
			report.Status,
			report.Date,
			strings.Join(report.Analysis.SkillsMatched, ", "),
			strings.Join(report.Analysis.SkillsMissing, ", "),
			report.MatchRatio(),
			report.Analysis.ExperienceYears,
			report.Analysis.Education,
			report.Analysis.EducationScore,
			report.Analysis.Certifications,
			report.Analysis.Projects,
			report.FileURL,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
